// Package storage provides a minimal persistence layer for the audit trail
// of configuration mutations (who added or removed which server, and when).
//
// It is deliberately separate from the guild configuration store: losing the
// audit trail is an inconvenience, losing the configuration is an outage.
package storage
