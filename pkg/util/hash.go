package util

import (
	"crypto/rand"
	"encoding/hex"
)

// ShortHash returns a random URL-safe identifier, used for till IDs.
func ShortHash() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ApiKey returns a random key suitable for wallet admin/invoice keys.
func ApiKey() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
