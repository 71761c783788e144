// Package store provides SQLite-backed run history for acceptance
// executions.
//
// The store keeps three tables:
//   - runs: one row per execution, with the enumeration fingerprint
//   - run_cases: the ordered case list each run executed
//   - case_results: the outcome of each case
//
// # Ordering
//
// All ordering uses seq INTEGER columns (a logical clock), never
// timestamps. Runs are numbered in insertion order and cases keep their
// materialized position, so two histories built from the same inputs
// read back identically.
//
// Run IDs are UUIDv7, so they also sort by creation.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
