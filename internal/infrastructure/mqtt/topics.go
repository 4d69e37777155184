package mqtt

import "fmt"

// DefaultTopicPrefix is the prefix used when the configuration leaves
// mqtt.topic_prefix empty.
const DefaultTopicPrefix = "isy"

// Topics builds the bridge's MQTT topic names under a configurable prefix.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.NewTopics("isy")
//	stateTopic := topics.EntityState("light", "11 22 33 1")
//	// Returns: "isy/entity/light/11 22 33 1/state"
type Topics struct {
	prefix string
}

// NewTopics creates a topic builder for the given prefix. An empty prefix
// falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the configured topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Status returns the bridge availability topic. The broker retains the
// last payload ("online" or "offline") so new subscribers see the current
// availability immediately; the LWT publishes "offline" on an unexpected
// disconnect.
//
// Example: isy/status
func (t Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

// EntityState returns the retained state topic for one entity.
//
// Example: isy/entity/light/11 22 33 1/state
func (t Topics) EntityState(category, entityID string) string {
	return fmt.Sprintf("%s/entity/%s/%s/state", t.prefix, category, entityID)
}

// ControlEvent returns the topic for control event notifications: the
// non-state reports a device makes (ramp rate, battery level, setpoints).
//
// Example: isy/event/control
func (t Topics) ControlEvent() string {
	return fmt.Sprintf("%s/event/control", t.prefix)
}

// Command returns the command topic for one entity.
//
// Example: isy/command/11 22 33 1
func (t Topics) Command(entityID string) string {
	return fmt.Sprintf("%s/command/%s", t.prefix, entityID)
}

// AllCommands returns a pattern matching command topics for every entity.
//
// Pattern: isy/command/+
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+", t.prefix)
}

// AllEntityStates returns a pattern matching every entity state topic.
//
// Pattern: isy/entity/+/+/state
func (t Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/entity/+/+/state", t.prefix)
}

// All returns a pattern matching every bridge topic.
// Use with caution - this receives ALL traffic.
//
// Pattern: isy/#
func (t Topics) All() string {
	return fmt.Sprintf("%s/#", t.prefix)
}
