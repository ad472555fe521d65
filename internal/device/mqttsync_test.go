package device

import (
	"encoding/json"
	"testing"

	"github.com/aurora-obs/aurora-core/internal/indi"
)

func TestBusSync_SyncDeviceList(t *testing.T) {
	bus := &fakeBus{}
	sync := NewBusSync(bus, 1)

	sync.SyncDeviceList([]string{"CCD Simulator", "Telescope"})

	msgs := bus.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "aurora/state/devices" {
		t.Errorf("topic = %q, want aurora/state/devices", msgs[0].topic)
	}
	if !msgs[0].retained {
		t.Error("device list should be retained")
	}

	var devices []string
	if err := json.Unmarshal(msgs[0].payload, &devices); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if len(devices) != 2 || devices[0] != "CCD Simulator" {
		t.Errorf("devices = %v", devices)
	}
}

func TestBusSync_SyncVector(t *testing.T) {
	bus := &fakeBus{}
	sync := NewBusSync(bus, 1)

	sync.SyncVector("CCD Simulator", "CCD_EXPOSURE", indi.VectorSnapshot{
		Kind:     indi.KindNumber,
		State:    indi.StateBusy,
		Label:    "Expose",
		Group:    "Main Control",
		Revision: 42,
		Order:    []string{"CCD_EXPOSURE_VALUE"},
		Values:   map[string]string{"CCD_EXPOSURE_VALUE": "5"},
	})

	msgs := bus.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "aurora/state/CCD Simulator/CCD_EXPOSURE" {
		t.Errorf("topic = %q", msgs[0].topic)
	}
	if !msgs[0].retained {
		t.Error("vector state should be retained")
	}

	var state VectorStateMessage
	if err := json.Unmarshal(msgs[0].payload, &state); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if state.Kind != "Number" {
		t.Errorf("kind = %q, want Number", state.Kind)
	}
	if state.State != "Busy" {
		t.Errorf("state = %q, want Busy", state.State)
	}
	if state.Revision != 42 {
		t.Errorf("revision = %d, want 42", state.Revision)
	}
	if state.Values["CCD_EXPOSURE_VALUE"] != "5" {
		t.Errorf("values = %v", state.Values)
	}
}

func TestBusSync_RemoveVector(t *testing.T) {
	bus := &fakeBus{}
	sync := NewBusSync(bus, 1)

	sync.RemoveVector("CCD Simulator", "CCD_EXPOSURE")

	msgs := bus.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if len(msgs[0].payload) != 0 {
		t.Error("removal should publish an empty retained payload")
	}
	if !msgs[0].retained {
		t.Error("removal should be retained to clear the topic")
	}
}

func TestBusSync_SyncDriverGroups(t *testing.T) {
	bus := &fakeBus{}
	sync := NewBusSync(bus, 1)

	sync.SyncDriverGroups(map[string]string{"CCD Simulator": "Main Control"})

	msgs := bus.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "aurora/state/groups" {
		t.Errorf("topic = %q, want aurora/state/groups", msgs[0].topic)
	}

	var groups map[string]string
	if err := json.Unmarshal(msgs[0].payload, &groups); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if groups["CCD Simulator"] != "Main Control" {
		t.Errorf("groups = %v", groups)
	}
}

func TestBusSync_PublishNotification(t *testing.T) {
	bus := &fakeBus{}
	sync := NewBusSync(bus, 1)

	sync.PublishNotification(indi.Notification{
		UID:     "2026-01-01T00:00:00.000000000Z:00000000",
		Device:  "Telescope",
		Message: "slew complete",
	})

	msgs := bus.messages()
	if len(msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(msgs))
	}
	if msgs[0].topic != "aurora/notification" {
		t.Errorf("topic = %q, want aurora/notification", msgs[0].topic)
	}
	if msgs[0].retained {
		t.Error("notifications must not be retained")
	}

	var note indi.Notification
	if err := json.Unmarshal(msgs[0].payload, &note); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if note.Message != "slew complete" {
		t.Errorf("message = %q", note.Message)
	}
}
