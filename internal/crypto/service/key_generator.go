package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
)

// GenerateEncryptionKey returns a new random field encryption key: 32 random bytes
// hex encoded to 64 characters.
func GenerateEncryptionKey() (string, error) {
	raw := make([]byte, cryptoDomain.KeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}
	defer cryptoDomain.Zero(raw)

	return hex.EncodeToString(raw), nil
}
