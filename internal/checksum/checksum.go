// Package checksum computes content digests for source documents and drafts.
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

// String is Sum for string content.
func String(s string) string {
	return Sum([]byte(s))
}

// ETag returns a quoted strong entity tag for content.
func ETag(s string) string {
	return `"` + String(s)[:32] + `"`
}
