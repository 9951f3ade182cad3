// Package sqlite provides a SQLite-backed friend list storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS friends (
	position INTEGER PRIMARY KEY,
	id       TEXT NOT NULL,
	name     TEXT NOT NULL
)`

// Storage persists the friend list in a SQLite table, one row per entry.
// position keeps insertion order.
type Storage struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite database at path
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return open(dsn)
}

// OpenMemory opens a private in-memory database (for testing)
func OpenMemory() (*Storage, error) {
	return open(":memory:")
}

func open(dsn string) (*Storage, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Storage{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *Storage) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) ([]model.FriendEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name FROM friends ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []model.FriendEntry{}
	for rows.Next() {
		var rawID, name string
		if err := rows.Scan(&rawID, &name); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		id, err := model.ParseProfileID(rawID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrCorrupt, err)
		}
		entries = append(entries, model.FriendEntry{Name: name, ID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}
	return entries, nil
}

func (s *Storage) Save(ctx context.Context, entries []model.FriendEntry) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM friends`); err != nil {
		return fmt.Errorf("clear friends: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO friends (position, id, name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, entry := range entries {
		if _, err := stmt.ExecContext(ctx, i, model.CompactID(entry.ID), entry.Name); err != nil {
			return fmt.Errorf("insert friend %s: %w", entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
