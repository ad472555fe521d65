// Package tsdb provides InfluxDB connectivity for Aurora Core.
//
// It wraps the official influxdb-client-go v2 library with Aurora-specific
// patterns for connection management, state recording, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Property vector state transitions (idle/ok/busy/alert)
//   - Device connect/disconnect events
//   - Broadcast notifications from drivers
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "aurora",
//	    Bucket: "observatory",
//	}
//
//	client, err := tsdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a vector state transition
//	client.RecordVectorState("CCD Simulator", "CCD_EXPOSURE", "Busy", 42)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead when drivers stream rapid state changes,
// such as a camera ticking through a long exposure.
package tsdb
