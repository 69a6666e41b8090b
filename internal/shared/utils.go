// Package shared provides utility functions for working with
// random strings.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const randStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string. As a result, the final string length
// will be twice the size (since each byte expands to two hex characters).
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// MakeRandString generates a random alphanumeric string of the given length
// using a cryptographically secure source. It is used for per-talk stream
// keys, where the value acts as a static credential.
func MakeRandString(length int) (string, error) {

	b := make([]byte, length)
	max := big.NewInt(int64(len(randStringAlphabet)))

	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = randStringAlphabet[n.Int64()]
	}

	return string(b), nil
}
