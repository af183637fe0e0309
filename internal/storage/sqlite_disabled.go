//go:build !sqlite
// +build !sqlite

package storage

import (
	"errors"

	logx "mcwatch/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	return nil, errors.New("sqlite driver not compiled in (build with -tags sqlite)")
}
