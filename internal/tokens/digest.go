package tokens

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sha256Hex is the form in which refresh tokens are persisted.
func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
