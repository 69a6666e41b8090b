package models

import "time"

// TokenPurpose discriminates the bearer-token classes sharing one schema.
type TokenPurpose string

const (
	// TokenPurposeAuth is the long-lived session refresh token issued at login.
	TokenPurposeAuth TokenPurpose = "auth"
	// TokenPurposeChat is the short-lived key used by the chat relay.
	TokenPurposeChat TokenPurpose = "chat"
	// TokenPurposePlay authorizes playing a live stream.
	TokenPurposePlay TokenPurpose = "play"
	// TokenPurposeVerification is the one-time email verification key.
	TokenPurposeVerification TokenPurpose = "verification"
)

// Token is a persisted bearer credential. Only the lookup-key prefix and a
// keyed digest of the plaintext are stored; the plaintext is returned to the
// caller exactly once, at creation.
type Token struct {
	ID       string
	UserID   string
	Purpose  TokenPurpose
	TokenKey string
	Digest   string
	// Expires is nil for tokens without an expiry (play, verification).
	Expires   *time.Time
	CreatedAt time.Time
}

// Expired reports whether the token has an expiry in the past.
func (t *Token) Expired(now time.Time) bool {
	return t.Expires != nil && t.Expires.Before(now)
}
