package device

import (
	"encoding/json"

	"github.com/aurora-obs/aurora-core/internal/indi"
	"github.com/aurora-obs/aurora-core/internal/infrastructure/mqtt"
)

// Bus is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type Bus interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// BusSync publishes the device-tree projection to the MQTT bus.
//
// State topics are retained so late subscribers immediately see the
// current tree. A removed vector is cleared by publishing an empty
// retained payload on its topic.
type BusSync struct {
	bus    Bus
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// Ensure BusSync can serve as the Syncer target.
var _ Synchronizer = (*BusSync)(nil)

// NewBusSync creates a synchroniser publishing to the given bus.
func NewBusSync(bus Bus, qos byte) *BusSync {
	return &BusSync{
		bus:    bus,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the synchroniser.
func (b *BusSync) SetLogger(logger Logger) {
	b.logger = logger
}

// SyncDeviceList publishes the retained device list.
func (b *BusSync) SyncDeviceList(devices []string) {
	payload, err := json.Marshal(devices)
	if err != nil {
		b.logger.Error("marshalling device list", "error", err)
		return
	}
	if err := b.bus.Publish(b.topics.DeviceList(), payload, b.qos, true); err != nil {
		b.logger.Error("publishing device list", "error", err)
	}
}

// SyncVector publishes the retained JSON projection of one vector.
func (b *BusSync) SyncVector(device, vector string, snap indi.VectorSnapshot) {
	msg := VectorStateMessage{
		Device:    device,
		Vector:    vector,
		Kind:      snap.Kind.String(),
		State:     string(snap.State),
		Label:     snap.Label,
		Group:     snap.Group,
		Timeout:   snap.Timeout,
		Timestamp: snap.Timestamp,
		Message:   snap.Message,
		Revision:  snap.Revision,
		Order:     snap.Order,
		Values:    snap.Values,
		Labels:    snap.Labels,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("marshalling vector state",
			"device", device, "vector", vector, "error", err)
		return
	}
	if err := b.bus.Publish(b.topics.VectorState(device, vector), payload, b.qos, true); err != nil {
		b.logger.Error("publishing vector state",
			"device", device, "vector", vector, "error", err)
	}
}

// RemoveVector clears the retained state topic for a deleted vector.
func (b *BusSync) RemoveVector(device, vector string) {
	if err := b.bus.Publish(b.topics.VectorState(device, vector), nil, b.qos, true); err != nil {
		b.logger.Error("clearing vector state",
			"device", device, "vector", vector, "error", err)
	}
}

// SyncDriverGroups publishes the retained driver-to-group side table.
func (b *BusSync) SyncDriverGroups(groups map[string]string) {
	payload, err := json.Marshal(groups)
	if err != nil {
		b.logger.Error("marshalling driver groups", "error", err)
		return
	}
	if err := b.bus.Publish(b.topics.DriverGroups(), payload, b.qos, true); err != nil {
		b.logger.Error("publishing driver groups", "error", err)
	}
}

// PublishNotification publishes a driver note. Notes are transient, so
// the message is not retained.
func (b *BusSync) PublishNotification(note indi.Notification) {
	payload, err := json.Marshal(note)
	if err != nil {
		b.logger.Error("marshalling notification", "error", err)
		return
	}
	if err := b.bus.Publish(b.topics.Notification(), payload, b.qos, false); err != nil {
		b.logger.Error("publishing notification", "error", err)
	}
}
