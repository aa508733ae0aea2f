// Package journal provides SQLite-backed durable storage for posy runs.
//
// The journal is an append-only log with:
//   - Runs: one row per engine session, carrying the catalog it ran
//   - Arrivals: every stem fed to the engine, in order
//   - Bouquets: every emission, linked to the arrival that unlocked it
//
// # Invariants
//
// Idempotent writes
//   - All inserts use ON CONFLICT DO NOTHING
//   - Rewriting an event after a crash is a silent no-op; the first write wins
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - One clock stamps both arrivals and bouquets, so the merged event
//     stream has a total order and replay reproduces it exactly
//
// Deterministic query results
//   - All queries include: ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Identical results across replays and SQLite versions
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: arrivals and bouquets must reference a run
//
// Content-addressed IDs are computed via internal/canon using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package journal
