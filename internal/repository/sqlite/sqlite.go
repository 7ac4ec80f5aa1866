// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go, no CGo).
//
// Plain CRUD statements are written as raw SQL; the joined and filtered
// queries (collision counting, paged device listing, incoming/outgoing
// reservation listings) are built with goqu so the predicates stay readable
// next to their Go counterparts in the model package.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	// Registers the sqlite3 dialect with goqu.
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements all three repository
// interfaces. One struct for all of them keeps the wiring in server.go short
// and mirrors how the tables relate.
type DB struct {
	conn *sql.DB
	sb   goqu.DialectWrapper
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// PRAGMAs below apply per connection, and a ":memory:" path is a
	// separate database per connection. A single connection keeps both
	// consistent; SQLite serializes writes anyway.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads during writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; the reservations → devices
	// cascade depends on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn: conn,
		sb:   goqu.Dialect("sqlite3"),
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			username   TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			last_name  TEXT NOT NULL DEFAULT '',
			email      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS devices (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			owner_id    TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_devices_owner_id ON devices(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating devices table: %w", err)
	}

	// date_start/date_end are TEXT in "YYYY-MM-DD" form: lexicographic order
	// equals calendar order, so the collision predicate works on raw columns.
	// ON DELETE CASCADE removes a deleted device's remaining (terminal)
	// reservations; the service layer refuses deletion while active ones exist.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reservations (
			id         TEXT PRIMARY KEY,
			date_start TEXT NOT NULL,
			date_end   TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'CREATED',
			device_id  TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reservations_device_status ON reservations(device_id, status);
		CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating reservations table: %w", err)
	}

	return nil
}
