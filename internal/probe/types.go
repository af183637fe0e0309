package probe

import (
	"errors"
	"time"
)

var (
	// ErrTimeout marks a probe that exceeded its wall-clock budget.
	ErrTimeout = errors.New("probe timed out")

	// ErrProtocol marks a response the prober could not make sense of.
	ErrProtocol = errors.New("malformed server response")
)

// Status is a successful probe outcome. It is ephemeral and never persisted.
type Status struct {
	Online  int
	Max     int
	Latency time.Duration
}
