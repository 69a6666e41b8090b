// Package common defines shared constants and sentinel errors used across
// the livetalks server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Validation errors (malformed stream_url, query string, payloads).
	ErrorInvalidRequest = errors.New("invalid request")

	// Uniqueness violations (username already taken, duplicate booking).
	ErrorConflict = errors.New("already exists")

	// Access-token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Email verification business rules. Both map to 403 at the boundary.
	ErrorAlreadyVerified = errors.New("account is already verified")
	ErrorEmailConflict   = errors.New("email was used to verify another account")
)
