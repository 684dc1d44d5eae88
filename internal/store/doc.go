// Package store provides SQLite-backed durable storage for iontrap runs.
//
// The store is an append-only log with:
//   - Plans: routed timelines, content-addressed by ir.PlanHash
//   - Runs: one summary per pipeline run, linked to its plan
//   - Stages: the clock-stamped schedule/route/verify steps of each run
//
// Writes are idempotent (ON CONFLICT DO NOTHING). All ordering uses the
// logical seq column, never timestamps, and every list query ends with
// ORDER BY seq ASC, id COLLATE BINARY ASC so reads are reproducible.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
