package entity

import (
	"strings"
	"time"

	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Kind identifies what controller object backs an entity.
type Kind string

// Entity kinds.
const (
	KindDevice   Kind = "device"
	KindScene    Kind = "scene"
	KindProgram  Kind = "program"
	KindVariable Kind = "variable"
)

// State is the live attribute map for an entity. The "value" key holds
// the primary state; everything else is a named attribute (aux property
// values, friendly-named control reports, program status).
//
// An unknown primary state is modelled by the absence of the "value"
// key, not by a sentinel value.
type State map[string]any

// Entity is one classified, addressable thing the bridge exposes:
// a device node, a scene, a program folder or a variable.
//
// Entities are built once from the classification result and updated
// in place by the event stream afterwards. All access goes through the
// Registry, which hands out deep copies.
type Entity struct {
	// ID is the registry-unique identifier: the controller address for
	// nodes and scenes, the program id for programs, and a synthetic
	// "var_<type>_<id>" for variables.
	ID string `json:"id"`

	// Name is the display name as reported by the controller or
	// declared in the configuration.
	Name string `json:"name"`

	Category classify.Category `json:"category"`
	Kind     Kind              `json:"kind"`

	// Path is the controller folder path for nodes ("" otherwise).
	Path string `json:"path,omitempty"`

	Enabled bool `json:"enabled"`

	// State is the live attribute snapshot.
	State State `json:"state"`

	// StateUpdatedAt is when the state last changed (nil until the
	// first event arrives after the startup snapshot).
	StateUpdatedAt *time.Time `json:"state_updated_at,omitempty"`
}

// DeepCopy returns an independent copy of the entity.
func (e *Entity) DeepCopy() *Entity {
	if e == nil {
		return nil
	}
	clone := *e
	clone.State = deepCopyState(e.State)
	if e.StateUpdatedAt != nil {
		t := *e.StateUpdatedAt
		clone.StateUpdatedAt = &t
	}
	return &clone
}

// deepCopyState copies a state map. Values are treated as immutable
// scalars, which holds for everything the bridge stores (strings,
// numbers, bools).
func deepCopyState(state State) State {
	if state == nil {
		return nil
	}
	clone := make(State, len(state))
	for k, v := range state {
		clone[k] = v
	}
	return clone
}

// nodeState builds the initial state snapshot for a node entity.
//
// The primary ST value lands under "value" (with its formatted sibling
// when the controller supplied one); each aux property becomes a
// "<value> <uom>" attribute keyed by control id. Attributes written
// later from control events use friendly names instead. An unknown
// primary value leaves "value" absent.
func nodeState(node *isy.Node) State {
	state := State{}
	if !node.Status.Unknown() {
		state["value"] = node.Status.Value
		if node.Status.Formatted != "" {
			state["formatted"] = node.Status.Formatted
		}
	}
	for id, prop := range node.AuxProperties {
		if prop.Unknown() {
			continue
		}
		attr := prop.Value
		if prop.UOM != "" {
			attr = prop.Value + " " + prop.UOM
		}
		state[id] = strings.TrimSpace(attr)
	}
	return state
}
