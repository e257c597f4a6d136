// Package store implements the durable site directory and message log on
// SQLite, plus an optional Redis read-through cache for history queries.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding the site directory and the
// append-only message log. It is safe for concurrent use by many hub
// instances; per-site append order is preserved by the single writer
// connection SQLite enforces.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return NewFromDB(db, log)
}

// NewFromDB creates a Store from an existing *sql.DB and runs migrations.
// This is useful for testing with an in-memory database.
func NewFromDB(db *sql.DB, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sites (
			site_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			timezone TEXT NOT NULL,
			active_constraints_json TEXT,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			msg_id TEXT PRIMARY KEY,
			site_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_site_created
			ON messages (site_id, created_at);
	`)
	return err
}
