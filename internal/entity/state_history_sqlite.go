package entity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetHistory limit bounds. Callers asking for nothing get a page,
// callers asking for everything get capped.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

const historySelect = `
	SELECT id, entity_id, state, source, created_at
	FROM state_history
	WHERE entity_id = ?
	ORDER BY created_at DESC
	LIMIT ?`

// SQLiteStateHistoryRepository persists entity state transitions in
// the state_history table, one row per change with the full state
// snapshot serialised as JSON. Timestamps are stored as RFC3339 text
// so lexical and chronological order coincide.
type SQLiteStateHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db}
}

// RecordStateChange appends a history row for entityID. An empty
// source defaults to the event source; created_at is filled by the
// schema default.
func (r *SQLiteStateHistoryRepository) RecordStateChange(ctx context.Context, entityID string, state State, source string) error {
	if entityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if source == "" {
		source = StateHistorySourceEvent
	}
	if state == nil {
		state = State{}
	}

	snapshot, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO state_history (entity_id, state, source) VALUES (?, ?, ?)",
		entityID, string(snapshot), source,
	); err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}
	return nil
}

// GetHistory returns up to limit recent transitions for entityID,
// newest first. limit <= 0 falls back to defaultHistoryLimit and
// anything above maxHistoryLimit is clamped.
func (r *SQLiteStateHistoryRepository) GetHistory(ctx context.Context, entityID string, limit int) ([]StateHistoryEntry, error) {
	if entityID == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	limit = clampHistoryLimit(limit)

	rows, err := r.db.QueryContext(ctx, historySelect, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	entries := make([]StateHistoryEntry, 0, limit)
	for rows.Next() {
		entry, err := scanHistoryRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes rows older than now minus olderThan and reports
// how many went.
func (r *SQLiteStateHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM state_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting state history: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return deleted, nil
}

func clampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	default:
		return limit
	}
}

// scanHistoryRow hydrates one row, decoding the JSON snapshot and the
// stored RFC3339 timestamp.
func scanHistoryRow(rows *sql.Rows) (StateHistoryEntry, error) {
	var (
		entry     StateHistoryEntry
		snapshot  string
		createdAt string
	)
	if err := rows.Scan(&entry.ID, &entry.EntityID, &snapshot, &entry.Source, &createdAt); err != nil {
		return StateHistoryEntry{}, fmt.Errorf("scanning state history: %w", err)
	}

	if err := json.Unmarshal([]byte(snapshot), &entry.State); err != nil {
		return StateHistoryEntry{}, fmt.Errorf("unmarshalling state: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return StateHistoryEntry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	entry.CreatedAt = ts

	return entry, nil
}
