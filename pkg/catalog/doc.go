// Package catalog is the recordings and events database consulted by the
// retention engine.
//
// The catalog holds one row per stored video segment (Recording) and one per
// detection (Event). Times are persisted as fractional UTC epoch seconds.
// The retention engine only reads events; it reads and deletes recordings.
//
// Two backends implement Store:
//
//   - SQLiteStore, over either the pure-Go "sqlite" driver or the cgo
//     "sqlite3" driver.
//   - MemoryStore, for tests and tooling.
//
// Deletes are always keyed by id sets. DeleteInBatches splits large sets so
// no single statement carries more than MaxDeleteBatch ids.
package catalog
