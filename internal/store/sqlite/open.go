// Package sqlite provides the durable, crash-safe JobStore backing the
// scheduler. One row per (subscriber, conversation) pair; every mutation is
// committed before the call returns, so a restart never observes a torn or
// optimistic write.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// defaultBusyTimeout is the SQLite busy handler timeout in milliseconds.
const defaultBusyTimeout = 5000

// Open opens (or creates) the job database at path and migrates its schema.
// The database uses WAL mode with synchronous=FULL so each committed upsert,
// delete, or advance is durable against process crashes, and a single
// connection since SQLite serialises writes anyway.
func Open(ctx context.Context, path string) (*JobStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", defaultBusyTimeout),
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &JobStore{db: db}, nil
}
