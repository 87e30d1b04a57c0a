package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
//
// next_fire_at is stored as unix seconds (firing has whole-second
// granularity); rowid supplies the insertion-order tie-break for ListDue.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		subscriber_id    TEXT    NOT NULL,
		conversation_id  TEXT    NOT NULL,
		interval_seconds INTEGER NOT NULL,
		next_fire_at     INTEGER NOT NULL,
		created_at       TEXT    NOT NULL,
		PRIMARY KEY (subscriber_id, conversation_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_due ON jobs(next_fire_at)`,

	`CREATE INDEX IF NOT EXISTS idx_jobs_subscriber ON jobs(subscriber_id)`,
}

// migrate creates or updates the database schema to the latest version.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
