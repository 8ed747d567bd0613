// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. New creates it, Close destroys it; the server owns the
// lifecycle.
type DB struct {
	conn *sql.DB
}

// New opens a SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/codementor.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	// PRAGMAs are per-connection in SQLite, and database/sql is a pool.
	// Passing them in the DSN makes the driver apply them to every
	// connection it opens:
	//   - WAL allows concurrent reads while a write is in progress
	//   - foreign_keys is OFF by default, and code_sessions declares
	//     ON DELETE CASCADE against users
	//   - busy_timeout makes concurrent writers wait instead of failing
	//     immediately with SQLITE_BUSY
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own private,
	// empty database. A single connection keeps one shared database alive.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// Force an immediate connection so a bad path surfaces now, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a real migration tracker is overkill at this scale.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_at DATETIME
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Sessions cascade on user deletion. Users are never deleted through the
	// API today, but the referential rule belongs in the schema rather than
	// in application code that might forget it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS code_sessions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			query        TEXT NOT NULL,
			code_context TEXT NOT NULL DEFAULT '',
			response     TEXT NOT NULL,
			language     TEXT NOT NULL DEFAULT 'python',
			tokens_used  INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_code_sessions_user_created
			ON code_sessions(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating code_sessions table: %w", err)
	}

	return nil
}
