package domain

import (
	"github.com/allisson/treatment-register/internal/errors"
)

// Field encryption error definitions.
var (
	// ErrInvalidEncryptionKey indicates the configured field encryption key is missing or
	// shorter than MinKeyLength. It is fatal at startup: the service must not become ready.
	ErrInvalidEncryptionKey = errors.Wrap(errors.ErrInvalidInput, "invalid encryption key")

	// ErrEncryptionFailed indicates IV generation or the block cipher failed while encrypting
	// a field value. Writes must be aborted when it is returned.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed indicates a marker-wrapped value could not be decrypted: invalid
	// base64, payload shorter than the IV, wrong key or corrupted padding.
	//
	// The specific cause is not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
