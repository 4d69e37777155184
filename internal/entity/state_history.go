package entity

import (
	"context"
	"time"
)

// State history source values.
const (
	StateHistorySourceEvent   = "event"
	StateHistorySourceCommand = "command"
	StateHistorySourceStartup = "startup"
)

// StateHistoryEntry represents a single entity state change record.
//
// Each entry stores a full snapshot of the entity state at the time the
// change was observed. This provides a local audit trail even when the
// time-series database is unavailable.
type StateHistoryEntry struct {
	// ID is the auto-incremented primary key for the history row.
	ID int64 `json:"id"`

	// EntityID is the registry identifier of the entity.
	EntityID string `json:"entity_id"`

	// State is the JSON snapshot of the entity state.
	State State `json:"state"`

	// Source identifies how the state change was recorded (event, command, startup).
	Source string `json:"source"`

	// CreatedAt is the timestamp of the state change (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// StateHistoryRepository stores and retrieves entity state change history.
//
// Implementations must be thread-safe and use UTC timestamps.
type StateHistoryRepository interface {
	// RecordStateChange records an entity state change.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entityID: Registry entity identifier
	//   - state: State snapshot to persist
	//   - source: Origin of the change (event, command, startup)
	//
	// Returns:
	//   - error: nil on success, otherwise the underlying persistence error
	RecordStateChange(ctx context.Context, entityID string, state State, source string) error

	// GetHistory returns recent state change history for the entity.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - entityID: Registry entity identifier
	//   - limit: Maximum entries to return (implementation may clamp bounds)
	//
	// Returns:
	//   - []StateHistoryEntry: Ordered newest-first history entries (may be empty)
	//   - error: nil on success, otherwise the underlying query error
	GetHistory(ctx context.Context, entityID string, limit int) ([]StateHistoryEntry, error)

	// PruneHistory deletes history entries older than the given duration.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - olderThan: Duration to retain
	//
	// Returns:
	//   - int64: Number of rows deleted
	//   - error: nil on success, otherwise the underlying persistence error
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}
