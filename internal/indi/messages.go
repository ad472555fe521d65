package indi

import "fmt"

// PropertyKind identifies the typed flavour of an INDI vector.
type PropertyKind int

// Vector kinds defined by the INDI protocol.
const (
	KindText PropertyKind = iota
	KindNumber
	KindSwitch
	KindLight
)

// String returns the wire-protocol spelling of the kind ("Text", "Number",
// "Switch", "Light").
func (k PropertyKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindNumber:
		return "Number"
	case KindSwitch:
		return "Switch"
	case KindLight:
		return "Light"
	default:
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
}

// VectorState is the busy/idle/alert state shared by all properties of a
// vector.
type VectorState string

// Vector states defined by the INDI protocol.
const (
	StateIdle  VectorState = "Idle"
	StateOk    VectorState = "Ok"
	StateBusy  VectorState = "Busy"
	StateAlert VectorState = "Alert"
)

// Switch value sentinels. Switch properties carry exactly these two values
// on the wire.
const (
	SwitchOn  = "On"
	SwitchOff = "Off"
)

// Well-known vector and property names INDI drivers use to expose device
// connectivity.
const (
	VectorConnection   = "CONNECTION"
	PropertyConnect    = "CONNECT"
	PropertyDisconnect = "DISCONNECT"
)

// Message is a decoded INDI wire unit. Concrete types are DefVector,
// SetVector, DelProperty, and BroadcastMessage; the Reducer matches on them
// exhaustively.
type Message interface {
	// MessageDevice returns the device the message addresses. Empty only
	// for server-wide broadcast notes.
	MessageDevice() string
}

// PropertyDef is one child property inside a vector definition.
type PropertyDef struct {
	Name  string
	Label string
	Value string
}

// PropertyValue is a name/value pair inside an update or an outgoing
// command. Values are always strings at this layer; typed interpretation is
// the caller's responsibility.
type PropertyValue struct {
	Name  string
	Value string
}

// DefVector is a full vector declaration (def<Kind>Vector). It replaces any
// previous definition for the same device and name wholesale.
type DefVector struct {
	Device     string
	Name       string
	Kind       PropertyKind
	Label      string
	Group      string
	State      VectorState
	Timeout    float64
	Timestamp  string
	Message    string
	Properties []PropertyDef
}

// MessageDevice implements Message.
func (m DefVector) MessageDevice() string { return m.Device }

// SetVector is a partial value/state update (set<Kind>Vector) for an
// already-defined vector. HasState distinguishes an absent state attribute
// from an explicit one.
type SetVector struct {
	Device    string
	Name      string
	Kind      PropertyKind
	State     VectorState
	HasState  bool
	Timeout   float64
	Timestamp string
	Message   string
	Values    []PropertyValue
}

// MessageDevice implements Message.
func (m SetVector) MessageDevice() string { return m.Device }

// DelProperty removes a vector, or with an empty Name the whole device
// (delProperty).
type DelProperty struct {
	Device    string
	Name      string
	Timestamp string
	Message   string
}

// MessageDevice implements Message.
func (m DelProperty) MessageDevice() string { return m.Device }

// BroadcastMessage is a free-text note (message) not tied to any vector.
// It is never applied to the tree; it feeds the notification log.
type BroadcastMessage struct {
	Device    string
	Timestamp string
	Message   string
}

// MessageDevice implements Message.
func (m BroadcastMessage) MessageDevice() string { return m.Device }

// Command is an outgoing request to set child property values on a vector.
// Values are sent in slice order.
type Command struct {
	Device string
	Vector string
	Kind   PropertyKind
	Values []PropertyValue
}

// parseVectorState converts a wire state attribute into a VectorState.
// Unknown spellings map to Alert so that a desynchronised driver is visible
// rather than silently treated as idle.
func parseVectorState(s string) VectorState {
	switch VectorState(s) {
	case StateIdle, StateOk, StateBusy, StateAlert:
		return VectorState(s)
	default:
		return StateAlert
	}
}
