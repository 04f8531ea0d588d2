package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// NewSessionID allocates an opaque session identifier: 128 bits from the
// system CSPRNG, hex-encoded so it is safe in URLs and filenames. Uniqueness
// rests entirely on entropy; there is no persisted allocator state. Failure
// means the random source is broken, which is not a per-request condition.
func NewSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
