// Package store keeps a SQLite record of catalog generation runs.
//
// Each run stores the annotated canonical keys with their tags, category,
// extra attributes and concrete instances, plus the keys skipped as
// malformed. The database is an output of a build. Rule sources remain the
// only authority for rule state, and nothing here is read back into the
// annotation engine.
//
// # Tables
//
//   - runs: one row per build, id is a UUIDv7
//   - keys: canonical keys with their category path and attributes
//   - key_tags: one row per (key, tag)
//   - key_instances: concrete keys, in input order
//   - warnings: keys skipped as malformed
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
