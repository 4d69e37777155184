package auth

import "errors"

// Sentinel errors for authentication operations.
var (
	// ErrTokenInvalid indicates the JWT failed signature, expiry, or claim checks.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrInvalidCredentials indicates the username or password did not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
