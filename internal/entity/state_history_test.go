package entity

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupStateHistoryTestDB creates an in-memory SQLite database with the state_history table.
func setupStateHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE state_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entity_id TEXT NOT NULL,
			state TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'event',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_state_history_entity ON state_history(entity_id, created_at DESC);
		CREATE INDEX idx_state_history_time ON state_history(created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// insertStateHistoryRow inserts a state history row with a specific timestamp.
func insertStateHistoryRow(t *testing.T, db *sql.DB, entityID, stateJSON, source string, createdAt time.Time) {
	t.Helper()

	_, err := db.Exec(
		"INSERT INTO state_history (entity_id, state, source, created_at) VALUES (?, ?, ?, ?)",
		entityID,
		stateJSON,
		source,
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		t.Fatalf("failed to insert state history row: %v", err)
	}
}

// TestRecordStateChange verifies state history writes and retrieval.
func TestRecordStateChange(t *testing.T) {
	db := setupStateHistoryTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	state := State{"value": 255, "formatted": "On"}
	if err := repo.RecordStateChange(ctx, "11 22 33 1", state, StateHistorySourceEvent); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "11 22 33 1", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.EntityID != "11 22 33 1" {
		t.Errorf("EntityID = %q, want %q", entry.EntityID, "11 22 33 1")
	}
	if entry.Source != StateHistorySourceEvent {
		t.Errorf("Source = %q, want %q", entry.Source, StateHistorySourceEvent)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want non-zero")
	}
	if value, ok := entry.State["value"].(float64); !ok || value != 255 {
		t.Errorf("State[\"value\"] = %v, want 255", entry.State["value"])
	}
	if formatted, ok := entry.State["formatted"].(string); !ok || formatted != "On" {
		t.Errorf("State[\"formatted\"] = %v, want %q", entry.State["formatted"], "On")
	}
}

// TestRecordStateChange_EmptySource verifies the default source is applied.
func TestRecordStateChange_EmptySource(t *testing.T) {
	db := setupStateHistoryTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	if err := repo.RecordStateChange(ctx, "var_2_3", State{"value": 1}, ""); err != nil {
		t.Fatalf("RecordStateChange() error = %v", err)
	}

	entries, err := repo.GetHistory(ctx, "var_2_3", 1)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if entries[0].Source != StateHistorySourceEvent {
		t.Errorf("Source = %q, want %q", entries[0].Source, StateHistorySourceEvent)
	}
}

// TestGetHistory verifies ordering and limit enforcement.
func TestGetHistory(t *testing.T) {
	db := setupStateHistoryTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertStateHistoryRow(t, db, "11 22 33 1", `{"value":0}`, StateHistorySourceCommand, now.Add(-2*time.Hour))
	insertStateHistoryRow(t, db, "11 22 33 1", `{"value":128}`, StateHistorySourceEvent, now.Add(-1*time.Hour))
	insertStateHistoryRow(t, db, "11 22 33 1", `{"value":255}`, StateHistorySourceEvent, now)
	insertStateHistoryRow(t, db, "44 55 66 1", `{"value":1}`, StateHistorySourceEvent, now)

	entries, err := repo.GetHistory(ctx, "11 22 33 1", 2)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}

	if !entries[0].CreatedAt.Equal(now) {
		t.Errorf("entry[0] CreatedAt = %s, want %s", entries[0].CreatedAt, now)
	}
	if !entries[1].CreatedAt.Equal(now.Add(-1 * time.Hour)) {
		t.Errorf("entry[1] CreatedAt = %s, want %s", entries[1].CreatedAt, now.Add(-1*time.Hour))
	}
}

// TestGetHistory_EmptyEntityID verifies validation.
func TestGetHistory_EmptyEntityID(t *testing.T) {
	db := setupStateHistoryTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)

	if _, err := repo.GetHistory(context.Background(), "", 10); err == nil {
		t.Error("GetHistory() error = nil, want error for empty entity id")
	}
}

// TestPruneHistory verifies old entries are removed.
func TestPruneHistory(t *testing.T) {
	db := setupStateHistoryTestDB(t)
	repo := NewSQLiteStateHistoryRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	insertStateHistoryRow(t, db, "11 22 33 1", `{"value":255}`, StateHistorySourceEvent, now.Add(-40*24*time.Hour))
	insertStateHistoryRow(t, db, "11 22 33 1", `{"value":0}`, StateHistorySourceEvent, now.Add(-12*time.Hour))

	deleted, err := repo.PruneHistory(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	entries, err := repo.GetHistory(ctx, "11 22 33 1", 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if !entries[0].CreatedAt.Equal(now.Add(-12 * time.Hour)) {
		t.Errorf("remaining CreatedAt = %s, want %s", entries[0].CreatedAt, now.Add(-12*time.Hour))
	}
}
