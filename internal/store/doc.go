// Package store provides SQLite-backed durable storage for tickflow.
//
// It keeps two things:
//   - Record stack journals: every pushed entry plus the stack's cursor,
//     so undo history survives a restart (implements record.Journal)
//   - Reactor outcomes: one row per finished reactor, keyed by the
//     engine's logical seq (implements engine.OutcomeSink)
//
// Ordering always uses logical columns (position, seq), never timestamps.
// Read queries order by them with an id tiebreak so results are identical
// across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Payloads are stored as RFC 8785 canonical JSON and IDs are the
// content-addressed hashes from internal/ir/hash.go.
package store
