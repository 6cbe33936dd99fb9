// Package service provides the field encryption cipher and key loading services.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
)

// Cipher encrypts and decrypts individual string values using the marker-wrapped
// ciphertext format. Implementations have no knowledge of entities.
type Cipher interface {
	// Encrypt returns the marker-wrapped ciphertext of plaintext. Empty and already
	// encrypted values are returned unchanged.
	Encrypt(plaintext string) (string, error)

	// Decrypt returns the plaintext of a marker-wrapped value. Empty and unmarked
	// values are returned unchanged.
	Decrypt(value string) (string, error)

	// IsEncrypted reports whether value carries the ciphertext markers.
	IsEncrypted(value string) bool
}

// KMSService opens KMS keepers used to unseal the field encryption key.
type KMSService interface {
	// OpenKeeper opens a keeper for the KMS key identified by keyURI.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
