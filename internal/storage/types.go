package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures audit storage.
//
// Driver values:
//   - "file": dependency-free append-only JSON Lines file
//   - "sqlite": SQLite database file (requires the sqlite build tag)
//
// If Driver is empty or "none", audit storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one configuration mutation.
// Keep it compact and schema-stable.
type Entry struct {
	At        time.Time `json:"at"`
	GuildID   string    `json:"guild_id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name,omitempty"`
	Action    string    `json:"action"` // "add" | "remove"
	Host      string    `json:"host"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
}
