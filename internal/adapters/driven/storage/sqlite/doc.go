// Package sqlite provides the SQLite-backed local search index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database holds:
//
//   - packages: every imported package and its publisher
//   - actions: the manifest actions of each package, in order
//   - tokens: the searchable values of each action, written by Rebuild
//   - index_meta: whether the index is built and the hash of the package set
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.pkgsearch/data/index.db
//
// # Integrity
//
// Rebuild records an xxh3 hash of the sorted package FMRIs. A search that
// finds a different package set reports the index as corrupted; a search
// before the first Rebuild scans every action instead.
package sqlite
