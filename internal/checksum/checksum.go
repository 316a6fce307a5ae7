// Package checksum fingerprints page sources so rebuilds can report what changed.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum for already-decoded text.
func SumString(s string) string {
	return Sum([]byte(s))
}
