package domain

import (
	"context"
)

// EncryptionKey holds the process-wide field encryption key. It is read-only after
// construction and shared by every cipher call.
type EncryptionKey struct {
	key []byte
}

// NewEncryptionKey validates the raw key and truncates it to KeyLength bytes.
// Returns ErrInvalidEncryptionKey if raw is shorter than MinKeyLength.
func NewEncryptionKey(raw string) (*EncryptionKey, error) {
	if len(raw) < MinKeyLength {
		return nil, ErrInvalidEncryptionKey
	}

	key := make([]byte, KeyLength)
	copy(key, raw[:KeyLength])
	return &EncryptionKey{key: key}, nil
}

// Bytes returns the key material. Callers must not modify the returned slice.
func (k *EncryptionKey) Bytes() []byte {
	return k.key
}

// Close zeroes the key material.
func (k *EncryptionKey) Close() {
	Zero(k.key)
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// KMSKeeper unseals data encrypted by a key management service.
// *secrets.Keeper from gocloud.dev satisfies this interface.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
