package indiserver

import "errors"

var (
	// ErrInvalidConfig is returned when the indiserver configuration
	// fails validation.
	ErrInvalidConfig = errors.New("indiserver: invalid configuration")

	// ErrNotReady is returned when indiserver does not accept TCP
	// connections within the readiness window after starting.
	ErrNotReady = errors.New("indiserver: server did not become ready")
)
