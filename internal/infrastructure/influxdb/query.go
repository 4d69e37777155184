package influxdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MetricPoint is one value from a metrics range query.
type MetricPoint struct {
	Time    time.Time `json:"time"`
	Field   string    `json:"field"`
	Value   float64   `json:"value"`
	Control string    `json:"control,omitempty"`
}

// QueryEntityMetrics runs a Flux range query for one entity's recorded
// state values.
//
// Both the entity_state and control_event measurements are queried, so
// the result interleaves primary state with any control report values
// in time order.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entityID: Controller address or entity identifier
//   - start: Start of the range (inclusive)
//   - end: End of the range (exclusive)
//
// Returns:
//   - []MetricPoint: Points in time order (empty slice if none)
//   - error: ErrNotConnected, a validation error, or the query error
func (c *Client) QueryEntityMetrics(ctx context.Context, entityID string, start, end time.Time) ([]MetricPoint, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if strings.TrimSpace(entityID) == "" {
		return nil, fmt.Errorf("entity id is required")
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end must be after start")
	}

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => (r._measurement == %q or r._measurement == %q) and r.entity_id == %q)
  |> sort(columns: ["_time"])`,
		c.cfg.Bucket,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
		MeasurementEntityState,
		MeasurementControlEvent,
		entityID,
	)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	points := []MetricPoint{}
	for result.Next() {
		record := result.Record()

		value, ok := record.Value().(float64)
		if !ok {
			continue
		}

		point := MetricPoint{
			Time:  record.Time(),
			Field: record.Field(),
			Value: value,
		}
		if control, ok := record.ValueByKey("control").(string); ok {
			point.Control = control
		}
		points = append(points, point)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return points, nil
}
