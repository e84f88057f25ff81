// Package store provides SQLite-backed durable storage for a registry.
//
// The store holds two tables:
//   - kv: the current registry state, one row per backend key
//   - events: the append-only notification log
//
// It implements registry.Backend. Each registry commit is one SQL
// transaction: the changed keys and the operation's events become visible
// together or not at all.
//
// # Ordering
//
// Events are ordered by seq (the registry's logical clock), never by
// timestamps, so replay is deterministic regardless of wall time. Event
// reads are built as queryir selects and compiled by querysql, which always
// emits an ORDER BY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Event payloads and content-addressed IDs come from internal/ir using RFC
// 8785 canonical JSON and SHA-256 with domain separation.
package store
