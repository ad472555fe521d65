package device

import (
	"context"
	"fmt"

	"github.com/aurora-obs/aurora-core/internal/indi"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sequencer is the slice of the INDI client the Controller needs. It exists
// so command flows can be tested against a fake.
type Sequencer interface {
	SetParam(ctx context.Context, device, vectorID string, provider indi.ValueProvider, opts indi.SetParamOptions) ([]indi.PropertyValue, error)
	Activate(ctx context.Context, device, vectorID, propID string) error
	PulseParam(ctx context.Context, device, vectorID, propID string) error
	WaitVectors(ctx context.Context, device string, vectorIDs []string) error
	CheckConnected(device string) error
}

// Ensure the concrete client satisfies the interface.
var _ Sequencer = (*indi.Client)(nil)

// Controller implements the device orchestration API. Every operation takes
// a context for cancellation and fails with a typed error instead of
// crashing the process.
type Controller struct {
	seq    Sequencer
	logger Logger
}

// NewController creates a controller over the given sequencer.
func NewController(seq Sequencer) *Controller {
	return &Controller{seq: seq, logger: noopLogger{}}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// ConnectDevice drives the device's CONNECTION vector to CONNECT = On and
// waits for the driver to acknowledge. A device that is already connected
// is a no-op.
func (c *Controller) ConnectDevice(ctx context.Context, device string) error {
	if device == "" {
		return ErrInvalidDevice
	}
	if c.seq.CheckConnected(device) == nil {
		return nil
	}

	_, err := c.seq.SetParam(ctx, device, indi.VectorConnection,
		indi.StaticValues(map[string]string{indi.PropertyConnect: indi.SwitchOn}),
		indi.SetParamOptions{})
	if err != nil {
		return fmt.Errorf("connecting %q: %w", device, err)
	}
	if err := c.seq.CheckConnected(device); err != nil {
		return fmt.Errorf("connecting %q: %w", device, err)
	}

	c.logger.Info("device connected", "device", device)
	return nil
}

// DisconnectDevice drives the device's CONNECTION vector to
// DISCONNECT = On. Disconnecting an already-disconnected device is a no-op.
func (c *Controller) DisconnectDevice(ctx context.Context, device string) error {
	if device == "" {
		return ErrInvalidDevice
	}
	if c.seq.CheckConnected(device) != nil {
		return nil
	}

	_, err := c.seq.SetParam(ctx, device, indi.VectorConnection,
		indi.StaticValues(map[string]string{indi.PropertyDisconnect: indi.SwitchOn}),
		indi.SetParamOptions{})
	if err != nil {
		return fmt.Errorf("disconnecting %q: %w", device, err)
	}

	c.logger.Info("device disconnected", "device", device)
	return nil
}

// UpdateVector sets the given child values on a vector and waits for the
// command to complete. It returns the values actually written; an empty
// result means the vector already matched.
func (c *Controller) UpdateVector(ctx context.Context, device, vectorID string, children map[string]string) ([]indi.PropertyValue, error) {
	if device == "" {
		return nil, ErrInvalidDevice
	}
	if vectorID == "" {
		return nil, fmt.Errorf("%w: vector id is required", ErrInvalidCommand)
	}

	written, err := c.seq.SetParam(ctx, device, vectorID,
		indi.StaticValues(children), indi.SetParamOptions{})
	if err != nil {
		return nil, fmt.Errorf("updating %s.%s: %w", device, vectorID, err)
	}

	c.logger.Debug("vector updated",
		"device", device, "vector", vectorID, "written", len(written))
	return written, nil
}

// ActivateProperty fires a momentary switch property (e.g. an exposure
// abort) and returns once the driver reads it back On.
func (c *Controller) ActivateProperty(ctx context.Context, device, vectorID, propID string) error {
	if device == "" {
		return ErrInvalidDevice
	}
	if err := c.seq.Activate(ctx, device, vectorID, propID); err != nil {
		return fmt.Errorf("activating %s.%s.%s: %w", device, vectorID, propID, err)
	}
	return nil
}

// PulseProperty holds a momentary property On until the context is
// cancelled, guaranteeing it ends Off. Used for motion-style properties
// (guiding pulses, focuser runs).
func (c *Controller) PulseProperty(ctx context.Context, device, vectorID, propID string) error {
	if device == "" {
		return ErrInvalidDevice
	}
	if err := c.seq.PulseParam(ctx, device, vectorID, propID); err != nil {
		return fmt.Errorf("pulsing %s.%s.%s: %w", device, vectorID, propID, err)
	}
	return nil
}
