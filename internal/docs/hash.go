package docs

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the content fingerprint used for change detection.
func Fingerprint(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
