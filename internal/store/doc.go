// Package store provides SQLite-backed storage for validation runs.
//
// A run is one execution of a suite. Each run owns an ordered list of case
// results. Both are append-only: a run and all of its results are written
// in a single transaction and never updated.
//
// # Ordering
//
// Every read orders by seq, never by timestamp, so listings are identical
// across machines and clock changes. created_at is kept for display only.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Results cannot outlive their run
//
// Mismatch and uncovered field lists are stored as canonical JSON arrays
// produced by internal/ir.
package store
