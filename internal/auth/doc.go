// Package auth provides authentication for the bridge REST API.
//
// The bridge has a single config-backed account: the username and an
// Argon2id password hash live in the API configuration, not a database.
// A successful login yields a short-lived HS256 JWT; requests are then
// validated by signature only with no per-request storage lookup.
//
//   - Argon2id password hashing (OWASP 2025 recommendation), PHC format
//   - JWT access tokens with configurable TTL
package auth
