package sessions

import (
	"crypto/rand"
	"encoding/hex"
)

const sessionIDBytes = 32

// NewID returns a random session identifier.
func NewID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
