// Package isy is the connection layer for Universal Devices ISY-994
// controllers.
//
// The controller exposes a REST API that speaks XML over HTTP(S) with
// basic authentication. This package wraps that API into typed Go
// structures:
//
//   - Client: session setup, configuration/feature discovery, and the
//     directory fetches (nodes, programs, variables, climate)
//   - Node: one device endpoint with the optional classification metadata
//     different firmware generations report (nodeDefId, Insteon type,
//     Z-Wave category, unit of measure)
//   - Program: the controller-resident program tree
//   - VariableDirectory: integer and state variables indexed by type and id
//   - Climate: weather module measurements as paired value/unit attributes
//   - EventStream: the WebSocket subscription feed (ISYSUB subprotocol)
//     delivering state changes and control events after setup
//
// All directory fetches happen once during setup; the structures they
// return are read-only views consumed by the classification engine.
// Callers must treat them as immutable.
//
// Firmware differences are smoothed over here, not in consumers: pre-5.0
// firmware omits nodeDefId, non-Insteon devices omit the type code,
// non-Z-Wave devices omit the device category, and the unit-of-measure
// attribute is either a single code ("51") or a slash-separated list of
// human-readable states ("on/off/%"), which this package always splits
// into a token slice.
package isy
