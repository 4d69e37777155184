package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names used by the bridge.
const (
	// MeasurementEntityState holds the primary ST value per entity.
	MeasurementEntityState = "entity_state"

	// MeasurementControlEvent holds non-state control report values.
	MeasurementControlEvent = "control_event"

	// MeasurementWeather holds weather module measurements.
	MeasurementWeather = "weather"
)

// WriteEntityState writes an entity's primary state value to InfluxDB.
//
// This is the primary method for recording entity telemetry. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - entityID: Controller address or entity identifier
//   - category: Entity category ("light", "sensor", ...)
//   - value: The numeric state value to record
//
// Example:
//
//	client.WriteEntityState("11 22 33 1", "light", 255)
func (c *Client) WriteEntityState(entityID, category string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementEntityState,
		map[string]string{
			"entity_id": entityID,
			"category":  category,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteControlEvent writes a non-state control report value.
//
// Used for the secondary values devices report alongside state:
// ramp rates, battery levels, setpoints, power readings.
//
// Parameters:
//   - entityID: Controller address or entity identifier
//   - control: Control code as reported ("OL", "BATLVL", "CLISPH", ...)
//   - value: The reported value
func (c *Client) WriteControlEvent(entityID, control string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementControlEvent,
		map[string]string{
			"entity_id": entityID,
			"control":   control,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteWeatherMetric writes one weather module measurement.
//
// Parameters:
//   - label: Measurement label (e.g. "temperature", "wind speed")
//   - unit: Reporting unit as given by the controller
//   - value: The measurement value
func (c *Client) WriteWeatherMetric(label, unit string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementWeather,
		map[string]string{
			"label": label,
			"unit":  unit,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("bridge_stats",
//	    map[string]string{"host": "bridge-01"},
//	    map[string]interface{}{"events_per_min": 45.2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
