// Package influxdb provides InfluxDB connectivity for isy-bridge.
//
// It wraps the official influxdb-client-go v2 library with the bridge's
// patterns for connection management, telemetry writing, range queries,
// and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Entity state values as events arrive from the controller
//   - Control event values (ramp rates, battery levels, setpoints)
//   - Weather module measurements
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "home",
//	    Bucket: "isy",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write entity telemetry
//	client.WriteEntityState("11 22 33 1", "light", 255)
//
//	// Query a range back out
//	points, err := client.QueryEntityMetrics(ctx, "11 22 33 1", start, end)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection, query and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
