package indi

import "errors"

// Domain errors for the INDI client package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, indi.ErrNotFound) {
//	    // handle missing device/vector/property
//	}
var (
	// ErrNotConnected is returned when an operation requires the target
	// device to be connected (CONNECTION.CONNECT = On) and it is not.
	ErrNotConnected = errors.New("indi: device not connected")

	// ErrConnectionFailed is returned when dialing the INDI server fails.
	ErrConnectionFailed = errors.New("indi: connection to server failed")

	// ErrNotFound is returned when a referenced device, vector, or
	// property does not exist in the current tree.
	ErrNotFound = errors.New("indi: not found")

	// ErrDisconnected is returned by waits that require a live connection
	// when the connection to the server is dead.
	ErrDisconnected = errors.New("indi: server connection lost")

	// ErrCancelled is returned when an operation observes cooperative
	// cancellation through its context.
	ErrCancelled = errors.New("indi: operation cancelled")

	// ErrAlreadyPending is returned when an operation finds the target
	// vector busy with another command that must not be restarted.
	ErrAlreadyPending = errors.New("indi: vector busy with another command")

	// ErrTimeout is returned when a bounded wait exceeds its deadline.
	ErrTimeout = errors.New("indi: operation timed out")

	// ErrVectorMissing is returned when an expected vector does not
	// appear on a device within the vector wait window.
	ErrVectorMissing = errors.New("indi: vector missing on device")

	// ErrPropertyStopped is returned by PulseParam when a pulsed property
	// completes on its own, which correctly-behaved hardware never does.
	ErrPropertyStopped = errors.New("indi: pulsed property stopped")

	// ErrProtocolDecode is returned for malformed or unrecognised wire
	// data. The stream continues after the offending element.
	ErrProtocolDecode = errors.New("indi: protocol decode error")

	// ErrReadOnly is returned when a command targets a light vector,
	// which the protocol defines as read-only.
	ErrReadOnly = errors.New("indi: vector is read-only")
)
