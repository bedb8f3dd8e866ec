// Package sqlite provides the SQLite implementation of the document and
// process log stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. A Store owns the database; every ingestion job opens its
// own Session, which pins a single connection for the job's lifetime.
//
// # Schema
//
// The schema is managed through versioned migrations in migrations/. Each
// migration is a pair of .up.sql and .down.sql files; only .up.sql files
// are applied.
//
// # Data Location
//
// By default, the database is stored at ~/.docstudy/docstudy.db
package sqlite
