package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "mcwatch/pkg/logx"
)

// Store is the audit API used by the command layer and the maintenance job.
type Store interface {
	Append(ctx context.Context, e Entry) error

	// Prune drops entries older than cutoff and reports how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
