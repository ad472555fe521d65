package device

import "time"

// MQTT message types for the Aurora command bridge. Commands arrive on
// aurora/command/{device}/{vector}; every command is acknowledged on
// aurora/ack/{device}.

// CommandMessage is an inbound request to act on a device vector.
type CommandMessage struct {
	// ID uniquely identifies this command for correlation with its ack.
	ID string `json:"id"`

	// Timestamp is when the command was issued (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Command is the command name: "set", "connect", "disconnect",
	// "activate".
	Command string `json:"command"`

	// Values contains the child property values for "set".
	Values map[string]string `json:"values,omitempty"`

	// Property names the target child for "activate".
	Property string `json:"property,omitempty"`
}

// AckStatus represents the acknowledgment status of a command.
type AckStatus string

const (
	// AckAccepted indicates the command completed against the driver.
	AckAccepted AckStatus = "accepted"

	// AckFailed indicates the command could not be executed.
	AckFailed AckStatus = "failed"
)

// AckMessage acknowledges a CommandMessage.
type AckMessage struct {
	// CommandID is the ID from the original command.
	CommandID string `json:"command_id"`

	// Timestamp is when the acknowledgment was sent (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Device is the INDI device name.
	Device string `json:"device"`

	// Vector is the INDI vector name, when the command addressed one.
	Vector string `json:"vector,omitempty"`

	// Status indicates the outcome.
	Status AckStatus `json:"status"`

	// Error describes the failure when Status is "failed".
	Error string `json:"error,omitempty"`
}

// VectorStateMessage is the JSON projection of one vector, published
// retained on aurora/state/{device}/{vector}.
type VectorStateMessage struct {
	Device    string            `json:"device"`
	Vector    string            `json:"vector"`
	Kind      string            `json:"kind"`
	State     string            `json:"state"`
	Label     string            `json:"label,omitempty"`
	Group     string            `json:"group,omitempty"`
	Timeout   float64           `json:"timeout,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	Message   string            `json:"message,omitempty"`
	Revision  uint64            `json:"revision"`
	Order     []string          `json:"order"`
	Values    map[string]string `json:"values"`
	Labels    map[string]string `json:"labels,omitempty"`
}
