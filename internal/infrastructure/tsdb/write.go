package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordVectorState records a property vector state transition.
//
// This is the primary method for tracking how drivers move their vectors
// through the busy/idle lifecycle. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Parameters:
//   - device: Device name as reported by the driver (e.g., "CCD Simulator")
//   - vector: Vector identifier (e.g., "CCD_EXPOSURE")
//   - state: Vector state at the time of the transition
//   - revision: Tree revision that produced the transition
//
// Example:
//
//	client.RecordVectorState("CCD Simulator", "CCD_EXPOSURE", "Busy", 1042)
func (c *Client) RecordVectorState(device, vector, state string, revision uint64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"vector_state",
		map[string]string{
			"device": device,
			"vector": vector,
		},
		map[string]interface{}{
			"state":    state,
			"revision": int64(revision), // #nosec G115 -- revision fits int64 for any realistic session
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordServerConnection records a server link transition.
//
// Used for tracking how often the upstream server drops and how long
// outages last.
//
// Parameters:
//   - connected: true when the link came up, false when it went down
func (c *Client) RecordServerConnection(connected bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"server_link",
		nil,
		map[string]interface{}{
			"connected": connected,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordNotification records a broadcast note from a driver.
//
// Parameters:
//   - device: Device that emitted the note, empty for server-wide notes
//   - message: Human-readable note text
func (c *Client) RecordNotification(device, message string) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{}
	if device != "" {
		tags["device"] = device
	}

	point := write.NewPoint(
		"notification",
		tags,
		map[string]interface{}{
			"message": message,
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
//	client.WritePoint("client_stats",
//	    map[string]string{"host": "obs-01"},
//	    map[string]interface{}{"messages_rx": 1532, "decode_errors": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
