package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
	apperrors "github.com/allisson/treatment-register/internal/errors"
)

const selfTestValue = "self-test: Jean Dupont - 0123456789"

// FieldCipher implements Cipher with AES-256-CBC, PKCS#7 padding and a random IV per call.
//
// Encrypted values are encoded as:
//
//	<ENC> || base64(IV || ciphertext) || </ENC>
//
// FieldCipher is safe for concurrent use. The key is shared read-only by all calls.
type FieldCipher struct {
	block cipher.Block
	rand  io.Reader
}

// CipherInfo describes the active cipher configuration without exposing the key.
type CipherInfo struct {
	CipherMethod string `json:"cipher_method"`
	KeyLength    int    `json:"key_length"`
	IVLength     int    `json:"iv_length"`
	Prefix       string `json:"prefix"`
	Suffix       string `json:"suffix"`
}

// NewFieldCipher creates a FieldCipher from a raw key of at least 32 characters.
// Only the first 32 bytes are used. Returns ErrInvalidEncryptionKey for shorter keys.
func NewFieldCipher(rawKey string) (*FieldCipher, error) {
	key, err := cryptoDomain.NewEncryptionKey(rawKey)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	return NewFieldCipherFromKey(key)
}

// NewFieldCipherFromKey creates a FieldCipher from a validated key.
func NewFieldCipherFromKey(key *cryptoDomain.EncryptionKey) (*FieldCipher, error) {
	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrInvalidEncryptionKey, err.Error())
	}
	return &FieldCipher{block: block, rand: rand.Reader}, nil
}

// Encrypt encrypts plaintext and wraps it with the ciphertext markers.
// Empty input and values that already carry the markers are returned unchanged.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" || c.IsEncrypted(plaintext) {
		return plaintext, nil
	}

	iv := make([]byte, cryptoDomain.IVLength)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", apperrors.Wrapf(cryptoDomain.ErrEncryptionFailed, "failed to generate IV (%v)", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	payload := make([]byte, cryptoDomain.IVLength+len(padded))
	copy(payload, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(payload[cryptoDomain.IVLength:], padded)

	return cryptoDomain.EncryptedPrefix +
		base64.StdEncoding.EncodeToString(payload) +
		cryptoDomain.EncryptedSuffix, nil
}

// Decrypt strips the ciphertext markers and decrypts the payload.
// Empty input and values without the markers are returned unchanged.
func (c *FieldCipher) Decrypt(value string) (string, error) {
	if value == "" || !c.IsEncrypted(value) {
		return value, nil
	}

	encoded := strings.TrimSuffix(strings.TrimPrefix(value, cryptoDomain.EncryptedPrefix), cryptoDomain.EncryptedSuffix)
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, "invalid base64 payload")
	}
	if len(payload) < cryptoDomain.IVLength {
		return "", apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, "payload shorter than IV")
	}

	iv, ciphertext := payload[:cryptoDomain.IVLength], payload[cryptoDomain.IVLength:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, "ciphertext is not a multiple of the block size")
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrDecryptionFailed, err.Error())
	}
	return string(unpadded), nil
}

// EncryptPtr encrypts a nullable value. A nil pointer is returned as nil.
func (c *FieldCipher) EncryptPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := c.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DecryptPtr decrypts a nullable value. A nil pointer is returned as nil.
func (c *FieldCipher) DecryptPtr(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	out, err := c.Decrypt(*value)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// IsEncrypted reports whether value starts with the prefix marker and ends with the
// suffix marker. It is not a cryptographic validation.
func (c *FieldCipher) IsEncrypted(value string) bool {
	return cryptoDomain.HasMarkers(value)
}

// SelfTest round-trips a synthetic value through Encrypt and Decrypt.
func (c *FieldCipher) SelfTest() bool {
	encrypted, err := c.Encrypt(selfTestValue)
	if err != nil || !c.IsEncrypted(encrypted) {
		return false
	}
	decrypted, err := c.Decrypt(encrypted)
	return err == nil && decrypted == selfTestValue
}

// Info returns the cipher configuration.
func (c *FieldCipher) Info() CipherInfo {
	return CipherInfo{
		CipherMethod: cryptoDomain.CipherMethod,
		KeyLength:    cryptoDomain.KeyLength,
		IVLength:     cryptoDomain.IVLength,
		Prefix:       cryptoDomain.EncryptedPrefix,
		Suffix:       cryptoDomain.EncryptedSuffix,
	}
}

var errInvalidPadding = apperrors.New("invalid padding")

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+padding), data...), bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, apperrors.Wrapf(errInvalidPadding, "padded length %d", len(data))
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errInvalidPadding
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, errInvalidPadding
		}
	}
	return data[:len(data)-padding], nil
}
