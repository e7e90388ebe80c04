package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns 32 random bytes, base64url encoded.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
