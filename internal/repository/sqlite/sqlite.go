// Package sqlite implements the plant-lookup cache on an embedded SQLite
// database.
//
// WHY SQLITE FOR A CACHE?
// The two plant-data providers are metered third-party APIs and their
// answers for a given species barely change; a lookup cached for a week is
// as good as a fresh one. SQLite gives the cache persistence across
// restarts without any extra infrastructure — it lives inside the binary as
// a single file (modernc.org/sqlite is a pure-Go translation of SQLite, so
// no C toolchain is involved).
//
// The rest of the system's state lives in the hosted platform; this file is
// the only local storage the service owns.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool for the cache. sql.DB is itself a pool
// and safe for concurrent use, so no extra locking lives here.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the cache database and runs migrations.
//
// dbPath examples:
//   - "data/plantcache.db" — persistent, survives restarts
//   - ":memory:"           — throwaway, used in tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces a real connection so a bad path fails here, not on the
	// first lookup.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening —
	// relevant because every request thread may consult the cache.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Whoever calls New defers this.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the cache table. CREATE TABLE IF NOT EXISTS keeps this
// safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS plant_cache (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			name       TEXT NOT NULL,
			payload    TEXT NOT NULL,
			fetched_at DATETIME NOT NULL,
			UNIQUE (kind, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating plant_cache table: %w", err)
	}
	return nil
}
