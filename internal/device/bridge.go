package device

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aurora-obs/aurora-core/internal/indi"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/mqtt"
)

const (
	// commandTopicParts is the number of parts in a well-formed command
	// topic: aurora/command/{device}/{vector}.
	commandTopicParts = 4

	// commandTimeout bounds a single inbound command end to end.
	commandTimeout = 30 * time.Second
)

// Executor is the slice of the Controller the bridge dispatches to.
type Executor interface {
	ConnectDevice(ctx context.Context, device string) error
	DisconnectDevice(ctx context.Context, device string) error
	UpdateVector(ctx context.Context, device, vectorID string, children map[string]string) ([]indi.PropertyValue, error)
	ActivateProperty(ctx context.Context, device, vectorID, propID string) error
}

// Ensure the concrete controller satisfies the interface.
var _ Executor = (*Controller)(nil)

// Bridge receives command messages from the MQTT bus, executes them
// against the device controller, and acknowledges the outcome.
//
// Commands arrive on aurora/command/{device}/{vector}; the matching ack
// is published on aurora/ack/{device}. Each command runs in its own
// goroutine so a slow driver cannot stall the bus handler.
type Bridge struct {
	bus    Bus
	exec   Executor
	topics mqtt.Topics
	qos    byte
	logger Logger

	ctx       context.Context
	ctxCancel context.CancelFunc
	mu        sync.Mutex // serialises command admission against Stop
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewBridge creates a command bridge over the given bus and executor.
func NewBridge(bus Bus, exec Executor, qos byte) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		bus:       bus,
		exec:      exec,
		qos:       qos,
		logger:    noopLogger{},
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the command topic tree.
func (b *Bridge) Start() error {
	topic := b.topics.CommandWildcard()
	if err := b.bus.Subscribe(topic, b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	b.logger.Info("subscribed to commands", "topic", topic)
	return nil
}

// Stop cancels in-flight commands and waits for them to finish.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.ctxCancel()
		b.mu.Unlock()
		b.wg.Wait()
	})
}

// handleMessage routes an inbound command message.
func (b *Bridge) handleMessage(topic string, payload []byte) {
	parts := strings.Split(topic, "/")
	if len(parts) != commandTopicParts {
		b.logger.Error("invalid command topic", "topic", topic)
		return
	}
	device, vector := parts[2], parts[3]

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Error("failed to parse command", "topic", topic, "error", err)
		return
	}

	b.logger.Info("received command",
		"command_id", cmd.ID, "device", device,
		"vector", vector, "command", cmd.Command)

	// Admission is serialised with Stop: once the context is cancelled no
	// new command joins the wait group.
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		b.logger.Warn("dropping command during shutdown",
			"command_id", cmd.ID, "device", device, "vector", vector)
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	go func() {
		defer b.wg.Done()
		b.execute(device, vector, cmd)
	}()
}

// execute runs one command and acknowledges the outcome.
func (b *Bridge) execute(device, vector string, cmd CommandMessage) {
	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	var err error
	switch cmd.Command {
	case "connect":
		err = b.exec.ConnectDevice(ctx, device)
	case "disconnect":
		err = b.exec.DisconnectDevice(ctx, device)
	case "set":
		_, err = b.exec.UpdateVector(ctx, device, vector, cmd.Values)
	case "activate":
		if cmd.Property == "" {
			err = fmt.Errorf("%w: activate requires a property", ErrInvalidCommand)
		} else {
			err = b.exec.ActivateProperty(ctx, device, vector, cmd.Property)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidCommand, cmd.Command)
	}

	if err != nil {
		b.logger.Error("command failed",
			"command_id", cmd.ID, "device", device,
			"vector", vector, "error", err)
		b.publishAck(device, vector, cmd, AckFailed, err)
		return
	}

	b.publishAck(device, vector, cmd, AckAccepted, nil)
}

// publishAck sends the acknowledgment for a command.
func (b *Bridge) publishAck(device, vector string, cmd CommandMessage, status AckStatus, cmdErr error) {
	ack := AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Device:    device,
		Vector:    vector,
		Status:    status,
	}
	if cmdErr != nil {
		ack.Error = cmdErr.Error()
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		b.logger.Error("marshalling ack", "command_id", cmd.ID, "error", err)
		return
	}
	if err := b.bus.Publish(b.topics.Ack(device), payload, b.qos, false); err != nil {
		b.logger.Error("publishing ack", "command_id", cmd.ID, "error", err)
	}
}
