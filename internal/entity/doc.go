// Package entity holds the live view of everything the bridge exposes.
//
// The Registry is built once from the classification result and updated
// in place by the event stream; the API and the MQTT publisher read
// from it. State history persists snapshots to SQLite so recent changes
// survive restarts and remain queryable when the time-series database
// is down.
//
// Entity identity follows the controller: nodes and scenes key by
// address, programs by program id, variables by a synthetic
// "var_<type>_<id>".
package entity
