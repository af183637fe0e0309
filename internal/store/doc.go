// Package store persists the per-guild monitoring configuration.
//
// The whole configuration is one JSON document:
//
//	{ "<guildID>": { "servers": { "<host>": { ... } } } }
//
// Saves are atomic (write temp file, rename over the target) so a crash
// mid-write never truncates the durable state. Mutations funnel through the
// command layer, which is the single writer; cycles only read copies.
package store
