package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// RecordCycle stores a successful poll: it appends a stats snapshot, replaces
// the cached usage for the period and trims old snapshots.
func (db *DB) RecordCycle(period models.Period, records []models.UsageRecord, stats models.StatsSummary, at time.Time) error {
	ctx := context.Background()
	if at.IsZero() {
		at = time.Now()
	}

	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal usage records: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Error("failed to roll back", "error", err)
		}
	}()

	recordedAt := at.UTC().Format(timeLayout)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO stats_snapshots (
			period, recorded_at, total_cost, total_tokens, total_requests,
			total_errors, error_rate, record_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(period),
		recordedAt,
		stats.TotalCost,
		stats.TotalTokens,
		stats.TotalRequests,
		stats.TotalErrors,
		stats.ErrorRate,
		len(records),
	)
	if err != nil {
		return fmt.Errorf("failed to insert stats snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO usage_cache (period, records, stats, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			records = excluded.records,
			stats = excluded.stats,
			fetched_at = excluded.fetched_at
	`, string(period), string(recordsJSON), string(statsJSON), recordedAt)
	if err != nil {
		return fmt.Errorf("failed to update usage cache: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM stats_snapshots
		WHERE period = ? AND id NOT IN (
			SELECT id FROM stats_snapshots WHERE period = ?
			ORDER BY recorded_at DESC, id DESC LIMIT ?
		)
	`, string(period), string(period), maxSnapshotsPerPeriod)
	if err != nil {
		return fmt.Errorf("failed to prune stats snapshots: %w", err)
	}

	return tx.Commit()
}

// SnapshotHistory returns up to limit of the most recent snapshots for a
// period, oldest first.
func (db *DB) SnapshotHistory(period models.Period, limit int) ([]models.StatsSnapshot, error) {
	query := `
		SELECT id, period, recorded_at, total_cost, total_tokens, total_requests,
			   total_errors, error_rate, record_count
		FROM (
			SELECT * FROM stats_snapshots
			WHERE period = ?
			ORDER BY recorded_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, string(period), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []models.StatsSnapshot
	for rows.Next() {
		var s models.StatsSnapshot
		var p, recordedAt string
		if err := rows.Scan(
			&s.ID,
			&p,
			&recordedAt,
			&s.TotalCost,
			&s.TotalTokens,
			&s.TotalRequests,
			&s.TotalErrors,
			&s.ErrorRate,
			&s.RecordCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Period = models.Period(p)
		s.RecordedAt = parseTime(recordedAt)
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// CachedUsage returns the last recorded fetch for a period, or nil if none.
func (db *DB) CachedUsage(period models.Period) (*models.CachedUsage, error) {
	var recordsJSON, fetchedAt string
	var statsJSON sql.NullString

	err := db.QueryRowContext(context.Background(),
		`SELECT records, stats, fetched_at FROM usage_cache WHERE period = ?`,
		string(period),
	).Scan(&recordsJSON, &statsJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query usage cache: %w", err)
	}

	cached := &models.CachedUsage{Period: period, FetchedAt: parseTime(fetchedAt)}
	if err := json.Unmarshal([]byte(recordsJSON), &cached.Records); err != nil {
		return nil, fmt.Errorf("failed to decode cached records: %w", err)
	}
	if statsJSON.Valid && statsJSON.String != "" {
		var stats models.StatsSummary
		if err := json.Unmarshal([]byte(statsJSON.String), &stats); err != nil {
			return nil, fmt.Errorf("failed to decode cached stats: %w", err)
		}
		cached.Stats = &stats
	}
	return cached, nil
}

// ClearUsageCache removes every cached fetch. Used when the user signs out.
func (db *DB) ClearUsageCache() error {
	_, err := db.ExecContext(context.Background(), "DELETE FROM usage_cache")
	return err
}

// InsertSessionEvent appends to the session audit log.
func (db *DB) InsertSessionEvent(event *models.SessionEvent) error {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := db.ExecContext(context.Background(),
		`INSERT INTO session_events (event_type, user, timestamp) VALUES (?, ?, ?)`,
		string(event.Type),
		nullString(event.User),
		timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session event: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

// RecentSessionEvents returns the newest session events first.
func (db *DB) RecentSessionEvents(limit int) ([]models.SessionEvent, error) {
	rows, err := db.QueryContext(context.Background(), `
		SELECT id, event_type, user, timestamp
		FROM session_events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []models.SessionEvent
	for rows.Next() {
		var e models.SessionEvent
		var eventType, timestamp string
		var user sql.NullString
		if err := rows.Scan(&e.ID, &eventType, &user, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		e.Type = models.SessionEventType(eventType)
		e.User = user.String
		e.Timestamp = parseTime(timestamp)
		events = append(events, e)
	}

	return events, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		logger.Warn("unparseable timestamp in database", "value", s)
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
