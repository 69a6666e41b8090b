// Package cryptox implements the opaque bearer-token scheme shared by all
// token purposes: a random hex plaintext shown to the caller once, a short
// lookup-key prefix stored for indexed retrieval, and a keyed digest stored
// for verification. The plaintext itself is never persisted.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dpetukhov/livetalks/internal/shared"
)

const (
	// TokenKeyLength is the number of leading plaintext characters stored
	// in clear as the indexed lookup key.
	TokenKeyLength = 15

	// tokenByteLength is the number of random bytes in a token plaintext,
	// so the final hex string is twice as long.
	tokenByteLength = 32
)

// MakeTokenPlaintext generates a fresh token plaintext (64 hex characters).
func MakeTokenPlaintext() (string, error) {
	return shared.MakeRandHexString(tokenByteLength)
}

// TokenKey returns the lookup-key prefix of a plaintext. The caller must
// ensure the plaintext is at least TokenKeyLength characters long.
func TokenKey(plaintext string) string {
	return plaintext[:TokenKeyLength]
}

// HashToken computes the stored digest of a token plaintext: HMAC-SHA256
// keyed with the server secret, hex-encoded.
func HashToken(secret []byte, plaintext string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// DigestsEqual compares two digests in constant time.
func DigestsEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
