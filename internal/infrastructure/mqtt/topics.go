package mqtt

import "fmt"

// Topic prefixes for the Aurora MQTT surface.
//
// State topics carry the retained projection of the INDI device tree;
// command and ack topics carry the bridge request/response flow.
const (
	// TopicPrefix is the base for all Aurora topics.
	TopicPrefix = "aurora"

	// TopicPrefixState is the base for projection topics.
	TopicPrefixState = "aurora/state"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "aurora/system"
)

// Topics provides builders for Aurora MQTT topics. Using these helpers
// keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.VectorState("CCD Simulator", "CONNECTION")
//	// Returns: "aurora/state/CCD Simulator/CONNECTION"
type Topics struct{}

// VectorState returns the retained-state topic for one vector.
//
// Example: aurora/state/CCD Simulator/CCD_EXPOSURE
func (Topics) VectorState(device, vector string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixState, device, vector)
}

// DeviceList returns the topic carrying the sorted list of known devices.
//
// Example: aurora/state/devices
func (Topics) DeviceList() string {
	return TopicPrefixState + "/devices"
}

// DriverGroups returns the topic carrying the driver-to-group side table.
//
// Example: aurora/state/groups
func (Topics) DriverGroups() string {
	return TopicPrefixState + "/groups"
}

// Notification returns the topic broadcast notes are republished on.
//
// Example: aurora/notification
func (Topics) Notification() string {
	return TopicPrefix + "/notification"
}

// Command returns the topic for commands addressing one vector.
//
// Example: aurora/command/CCD Simulator/CCD_EXPOSURE
func (Topics) Command(device, vector string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, device, vector)
}

// CommandWildcard returns the subscription pattern matching all command
// topics.
//
// Example: aurora/command/+/+
func (Topics) CommandWildcard() string {
	return TopicPrefix + "/command/+/+"
}

// Ack returns the topic command acknowledgments are published on.
//
// Example: aurora/ack/CCD Simulator
func (Topics) Ack(device string) string {
	return fmt.Sprintf("%s/ack/%s", TopicPrefix, device)
}

// SystemStatus returns the topic for the client's online/offline status.
//
// Example: aurora/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
