package domain

import "strings"

// Ciphertext wire format for sensitive fields:
//
//	<ENC> || base64(IV || ciphertext) || </ENC>
//
// The marker pair must never change: values persisted with it are detected as
// ciphertext by prefix and suffix alone.
const (
	// EncryptedPrefix marks the beginning of an encrypted field value.
	EncryptedPrefix = "<ENC>"

	// EncryptedSuffix marks the end of an encrypted field value.
	EncryptedSuffix = "</ENC>"

	// CipherMethod is the block cipher mode used for field values.
	CipherMethod = "aes-256-cbc"

	// KeyLength is the number of key bytes used by the cipher.
	KeyLength = 32

	// MinKeyLength is the minimum accepted length of the configured key.
	MinKeyLength = 32

	// IVLength is the size of the random initialization vector prepended to every ciphertext.
	IVLength = 16
)

// HasMarkers reports whether value is wrapped by EncryptedPrefix and EncryptedSuffix.
func HasMarkers(value string) bool {
	return len(value) >= len(EncryptedPrefix)+len(EncryptedSuffix) &&
		strings.HasPrefix(value, EncryptedPrefix) &&
		strings.HasSuffix(value, EncryptedSuffix)
}
