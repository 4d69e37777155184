package entity

import "errors"

// Sentinel errors for entity operations.
var (
	// ErrEntityNotFound indicates the requested entity is not registered.
	ErrEntityNotFound = errors.New("entity: not found")
)
