// Package sqlite implements the repository interfaces on SQLite.
//
// We use modernc.org/sqlite, a pure-Go translation of SQLite: no CGo, no C
// toolchain, cross-compiles everywhere Go does. The database is a single
// file (or ":memory:" in tests).
//
// Uniqueness rules are enforced at the data-store level as UNIQUE indexes
// rather than application checks:
//   - users(email)
//   - contribution_requests(help_post_id, requester_id)
//   - contributors(help_post_id, user_id)
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements all four repository
// interfaces. One struct for all of them keeps cross-store transactions
// (accept, delete cascade) on a single connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database, applies pragmas, and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — needed for a
	// web server sharing one database file.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Referential integrity between posts, requests, and contributors.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer it next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			email              TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL DEFAULT '',
			college_email      TEXT NOT NULL DEFAULT '',
			github_username    TEXT NOT NULL DEFAULT '',
			github_profile_url TEXT NOT NULL DEFAULT '',
			avatar_url         TEXT NOT NULL DEFAULT '',
			bio                TEXT NOT NULL DEFAULT '',
			skills             TEXT NOT NULL DEFAULT '[]',
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS help_posts (
			id                    TEXT PRIMARY KEY,
			owner_id              TEXT NOT NULL REFERENCES users(id),
			title                 TEXT NOT NULL,
			description           TEXT NOT NULL,
			tech_stack            TEXT NOT NULL DEFAULT '[]',
			github_repo_url       TEXT NOT NULL DEFAULT '',
			expected_contribution TEXT NOT NULL DEFAULT '',
			status                TEXT NOT NULL DEFAULT 'OPEN'
			                      CHECK (status IN ('OPEN', 'CLOSED')),
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_help_posts_owner_status
			ON help_posts(owner_id, status);
		CREATE INDEX IF NOT EXISTS idx_help_posts_status_created
			ON help_posts(status, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating help_posts table: %w", err)
	}

	// The UNIQUE index on (help_post_id, requester_id) is the authority on
	// "one request per user per post". CreateOrReactivate relies on the
	// constraint violation rather than a pre-check, closing the
	// check-then-act race between two concurrent creates.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contribution_requests (
			id           TEXT PRIMARY KEY,
			help_post_id TEXT NOT NULL REFERENCES help_posts(id),
			requester_id TEXT NOT NULL REFERENCES users(id),
			message      TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL DEFAULT 'pending'
			             CHECK (status IN ('pending', 'accepted', 'rejected')),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (help_post_id, requester_id)
		);
		CREATE INDEX IF NOT EXISTS idx_requests_post_status
			ON contribution_requests(help_post_id, status);
	`)
	if err != nil {
		return fmt.Errorf("creating contribution_requests table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contributors (
			id           TEXT PRIMARY KEY,
			help_post_id TEXT NOT NULL REFERENCES help_posts(id),
			user_id      TEXT NOT NULL REFERENCES users(id),
			role         TEXT NOT NULL DEFAULT 'contributor'
			             CHECK (role IN ('contributor', 'reviewer')),
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (help_post_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_contributors_user
			ON contributors(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating contributors table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite surfaces constraint errors as *sqlite.Error
// with the extended result code.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// marshalStrings encodes a string slice as JSON for a TEXT column.
// A nil slice is stored as "[]" so reads never produce null.
func marshalStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding string list: %w", err)
	}
	return string(b), nil
}

func unmarshalStrings(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decoding string list: %w", err)
	}
	return v, nil
}
