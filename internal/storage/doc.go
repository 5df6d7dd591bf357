// Package storage persists the canonical event log and the per-guild
// notification settings.
//
// Two drivers implement the same Store interface:
//   - sqlite: a single database file (WAL), the default for real use
//   - file:   append-only jsonl plus a settings snapshot, dependency-free
//
// The log is append-only from this subsystem's perspective: records are
// written once and never mutated or deleted here.
package storage
