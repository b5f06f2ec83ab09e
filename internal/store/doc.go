// Package store provides persistent storage for profiles using SQLite.
//
// # Architecture
//
// ProfileStore is the persistence boundary. SQLiteStore implements it on
// database/sql; MockStore is an in-memory implementation for tests.
//
// Profiles of each variant live in their own table (a_profiles,
// b_profiles). The tables are declared with the schema package, which
// supplies the column list, the DDL and the value binders; each variant
// declares its own column set.
//
// # Row Mapping
//
// The settings tree is stored in the settings_map column as JSON text of its
// flattened form (nested keys joined with "."). A "." or "\\" inside a key is
// escaped with a backslash and an empty nested map is stored as {}, so
// reading a row restores the tree exactly. last_updated holds epoch
// milliseconds.
//
// Variant b has no playstyle or autoprofiler columns. Upserting a b profile
// with either field set logs a warning and the value is not stored.
//
// # SQLite Configuration
//
// Two drivers are supported:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//
// The store enables WAL mode, foreign keys and a busy timeout:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//	PRAGMA busy_timeout=5000;
//
// Database file locations:
//
//   - Default: ~/.local/share/profilevault/profiles.db
//   - Testing: a file under t.TempDir() or :memory:
//
// # Error Handling
//
//   - ErrNotFound: requested profile does not exist
//   - ErrUnknownVariant: a profile names a variant with no table
//   - *PersistenceError: wraps every driver or SQL failure with the operation
//
// The store returns errors; callers that need the never-fail policy go
// through the core facade, which logs and substitutes safe defaults.
//
// All methods accept context.Context for cancellation support.
package store
