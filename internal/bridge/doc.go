// Package bridge connects the controller to MQTT and storage.
//
// Events from the controller stream update the entity registry and are
// republished as retained entity state; raw control reports also go out
// on the control event topic and into the audit trail. Commands arrive
// on per-entity MQTT topics and are forwarded to the controller as node,
// program, or variable operations depending on the entity kind.
//
// The bridge takes its MQTT, metrics, history, and audit dependencies as
// interfaces; everything beyond the registry and the controller client
// is optional.
package bridge
