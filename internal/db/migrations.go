package db

import (
	"context"
	"fmt"
)

// migrations[i] upgrades the schema from version i to i+1. Append only.
var migrations = []string{
	`
	CREATE TABLE stats_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		period TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		total_cost REAL DEFAULT 0,
		total_tokens INTEGER DEFAULT 0,
		total_requests INTEGER DEFAULT 0,
		total_errors INTEGER DEFAULT 0,
		error_rate REAL DEFAULT 0,
		record_count INTEGER DEFAULT 0
	);
	CREATE INDEX idx_stats_snapshots_period_time ON stats_snapshots(period, recorded_at);

	CREATE TABLE usage_cache (
		period TEXT PRIMARY KEY,
		records TEXT NOT NULL,
		stats TEXT,
		fetched_at TEXT NOT NULL
	);

	CREATE TABLE session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		user TEXT,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX idx_session_events_timestamp ON session_events(timestamp);
	`,
}

// schemaVersion is the version a fully migrated database reports in
// PRAGMA user_version.
var schemaVersion = len(migrations)

// migrate applies every migration newer than the stored user_version, each
// in its own transaction.
func (db *DB) migrate(ctx context.Context) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build (%d)", version, schemaVersion)
	}

	for v := version; v < schemaVersion; v++ {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to migrate to version %d: %w", v+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to migrate to version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
