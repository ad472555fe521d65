package device

import "errors"

// Domain errors for the orchestration layer.
var (
	// ErrInvalidCommand is returned when an inbound command message is
	// malformed or names an unknown command.
	ErrInvalidCommand = errors.New("device: invalid command")

	// ErrInvalidDevice is returned when a command names no device.
	ErrInvalidDevice = errors.New("device: device name is required")
)
