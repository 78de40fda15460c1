package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent returns a short content fingerprint.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
