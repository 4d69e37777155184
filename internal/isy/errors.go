package isy

import "errors"

// Domain errors for the isy package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidURL is returned when the controller URL cannot be parsed
	// or uses a scheme other than http/https.
	ErrInvalidURL = errors.New("isy: invalid controller URL")

	// ErrAuthFailed is returned when the controller rejects the
	// configured credentials (HTTP 401/403).
	ErrAuthFailed = errors.New("isy: authentication failed")

	// ErrNotConnected is returned when a directory fetch or command is
	// attempted before Open() has succeeded.
	ErrNotConnected = errors.New("isy: not connected")

	// ErrRequestFailed is returned when the controller answers with an
	// unexpected HTTP status.
	ErrRequestFailed = errors.New("isy: request failed")

	// ErrCommandRejected is returned when the controller reports a
	// command as unsuccessful in its RestResponse envelope.
	ErrCommandRejected = errors.New("isy: command rejected")

	// ErrVariableNotFound is returned when a variable id does not exist
	// for the requested type.
	ErrVariableNotFound = errors.New("isy: variable not found")

	// ErrEventStreamClosed is returned when the event stream is stopped
	// while a read is in flight.
	ErrEventStreamClosed = errors.New("isy: event stream closed")
)
