// Package audit provides access to the control_events table for
// querying controller activity history.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event source values.
const (
	SourceDevice = "device"
	SourceAPI    = "api"
	SourceMQTT   = "mqtt"
)

// Event represents a single control event record: either a raw control
// reported by the event stream or a command issued through the bridge.
type Event struct {
	ID        string    `json:"id"`
	EntityID  string    `json:"entity_id"`
	Control   string    `json:"control"`
	Value     int       `json:"value"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which control events to return.
type Filter struct {
	EntityID string // optional: filter by entity ID
	Control  string // optional: filter by control ID (DON, RR, CLISPH, etc.)
	Source   string // optional: filter by source (device, api, mqtt)
	Limit    int    // default 50, max 200
	Offset   int    // pagination offset
}

// ListResult contains the paginated control event results.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository defines the interface for control event operations.
type Repository interface {
	Create(ctx context.Context, event *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores control events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new control event repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new control event. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, event *Event) error {
	if event.EntityID == "" {
		return fmt.Errorf("entity id is required")
	}
	if event.Control == "" {
		return fmt.Errorf("control is required")
	}
	if event.ID == "" {
		event.ID = "evt-" + uuid.NewString()[:8]
	}
	if event.Source == "" {
		event.Source = SourceDevice
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO control_events (id, entity_id, control, value, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.EntityID, event.Control, event.Value, event.Source,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting control event: %w", err)
	}

	return nil
}

// List returns control events matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for control event queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.EntityID != "" {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if filter.Control != "" {
		conditions = append(conditions, "control = ?")
		args = append(args, filter.Control)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count.
	// WHERE clause is built from parameterised conditions (? placeholders) — no user input in SQL string.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM control_events %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting control events: %w", err)
	}

	// Get paginated results.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, entity_id, control, value, source, created_at FROM control_events %s ORDER BY created_at DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying control events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var createdAt string

		if err := rows.Scan(&event.ID, &event.EntityID, &event.Control,
			&event.Value, &event.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning control event: %w", err)
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05Z", createdAt)
			if err != nil {
				return nil, fmt.Errorf("parsing control event timestamp %q: %w", createdAt, err)
			}
		}
		event.CreatedAt = t

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating control events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return &ListResult{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
