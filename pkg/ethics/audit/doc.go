// Package audit provides the append-only, queryable record of every ethics
// evaluation and every blocked violation attempt.
//
// # Entries
//
// Each evaluation writes exactly one Entry carrying the agent, the
// evaluation kind, and the full clearance. Entries are created once and
// never mutated; their lifetime is the lifetime of the store.
//
// # Stores
//
// Two Store backends are provided:
//
//   - MemoryStore - in-memory, for tests and ephemeral deployments
//   - SQLiteStore - durable single-file storage (WAL mode)
//
// Both accept concurrent writers without losing entries and preserve
// per-agent insertion order for history queries. Exact global ordering
// across agents is not required.
//
// # Retention
//
// Pruner deletes entries older than a configured retention period;
// Scheduler runs it on a cron expression so audit storage stays bounded.
package audit
