// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ProjectStore: project-to-repository mapping persistence
//   - SourceRecordStore: ingested file records with embedding blobs
//   - CommitStore: summarized commit feed persistence
//
// Embeddings are stored as little-endian float32 blobs; similarity ranking
// happens in the service layer after loading a project's records.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.codeatlas/data/codeatlas.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
