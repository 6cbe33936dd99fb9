package service

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
)

const testKey = "0123456789abcdef0123456789abcdef-extra-bytes-ignored"

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func newTestCipher(t *testing.T) *FieldCipher {
	t.Helper()
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)
	return c
}

func TestNewFieldCipher(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c, err := NewFieldCipher(testKey)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("Error_KeyTooShort", func(t *testing.T) {
		c, err := NewFieldCipher(strings.Repeat("a", 31))
		assert.Nil(t, c)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidEncryptionKey)
	})

	t.Run("Success_OnlyFirst32BytesMatter", func(t *testing.T) {
		a, err := NewFieldCipher(strings.Repeat("k", 32) + "suffix-a")
		require.NoError(t, err)
		b, err := NewFieldCipher(strings.Repeat("k", 32) + "suffix-b")
		require.NoError(t, err)

		encrypted, err := a.Encrypt("shared")
		require.NoError(t, err)
		decrypted, err := b.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "shared", decrypted)
	})
}

func TestFieldCipher_ConcreteScenario(t *testing.T) {
	c := newTestCipher(t)
	plaintext := "Jean Dupont - 0123456789"

	encrypted, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(encrypted, "<ENC>"))
	assert.True(t, strings.HasSuffix(encrypted, "</ENC>"))
	assert.True(t, c.IsEncrypted(encrypted))
	assert.False(t, c.IsEncrypted(plaintext))

	decrypted, err := c.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestFieldCipher_Encrypt(t *testing.T) {
	c := newTestCipher(t)

	t.Run("RoundTrip", func(t *testing.T) {
		inputs := []string{
			"a",
			"exactly16bytes!!",
			"12 rue de la Paix, 75002 Paris",
			"émoji ✓ and accents àéîõü",
			strings.Repeat("long value ", 200),
		}
		for _, input := range inputs {
			encrypted, err := c.Encrypt(input)
			require.NoError(t, err)
			decrypted, err := c.Decrypt(encrypted)
			require.NoError(t, err)
			assert.Equal(t, input, decrypted)
		}
	})

	t.Run("EmptyUnchanged", func(t *testing.T) {
		encrypted, err := c.Encrypt("")
		require.NoError(t, err)
		assert.Equal(t, "", encrypted)
	})

	t.Run("Idempotent", func(t *testing.T) {
		once, err := c.Encrypt("dpo@example.com")
		require.NoError(t, err)
		twice, err := c.Encrypt(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})

	t.Run("FreshIVPerCall", func(t *testing.T) {
		first, err := c.Encrypt("same value")
		require.NoError(t, err)
		second, err := c.Encrypt("same value")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("Error_IVGenerationFails", func(t *testing.T) {
		broken := newTestCipher(t)
		broken.rand = failingReader{}

		encrypted, err := broken.Encrypt("value")
		assert.Empty(t, encrypted)
		assert.ErrorIs(t, err, cryptoDomain.ErrEncryptionFailed)
		assert.ErrorContains(t, err, "failed to generate IV")
	})
}

func TestFieldCipher_Decrypt(t *testing.T) {
	c := newTestCipher(t)

	t.Run("PlaintextIsIdentity", func(t *testing.T) {
		for _, input := range []string{"", "plain", "<ENC>missing suffix", "missing prefix</ENC>"} {
			decrypted, err := c.Decrypt(input)
			require.NoError(t, err)
			assert.Equal(t, input, decrypted)
		}
	})

	t.Run("Error_InvalidBase64", func(t *testing.T) {
		_, err := c.Decrypt("<ENC>not*base64</ENC>")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_PayloadShorterThanIV", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("short"))
		_, err := c.Decrypt("<ENC>" + short + "</ENC>")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_IVOnly", func(t *testing.T) {
		ivOnly := base64.StdEncoding.EncodeToString(make([]byte, cryptoDomain.IVLength))
		_, err := c.Decrypt("<ENC>" + ivOnly + "</ENC>")
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("Error_WrongKey", func(t *testing.T) {
		other, err := NewFieldCipher(strings.Repeat("z", 32))
		require.NoError(t, err)

		encrypted, err := other.Encrypt("secret value")
		require.NoError(t, err)

		decrypted, err := c.Decrypt(encrypted)
		if err == nil {
			// CBC without authentication may unpad garbage successfully.
			assert.NotEqual(t, "secret value", decrypted)
			return
		}
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}

func TestFieldCipher_WireFormat(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.Encrypt("wire")
	require.NoError(t, err)

	encoded := strings.TrimSuffix(strings.TrimPrefix(encrypted, "<ENC>"), "</ENC>")
	payload, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, payload, cryptoDomain.IVLength+aes.BlockSize)

	block, err := aes.NewCipher([]byte(testKey[:32]))
	require.NoError(t, err)
	plaintext := make([]byte, aes.BlockSize)
	cipher.NewCBCDecrypter(block, payload[:16]).CryptBlocks(plaintext, payload[16:])

	assert.Equal(t, "wire", string(plaintext[:4]))
	for _, b := range plaintext[4:] {
		assert.Equal(t, byte(12), b)
	}
}

func TestFieldCipher_Ptr(t *testing.T) {
	c := newTestCipher(t)

	encrypted, err := c.EncryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, encrypted)

	decrypted, err := c.DecryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, decrypted)

	value := "0612345678"
	encrypted, err = c.EncryptPtr(&value)
	require.NoError(t, err)
	require.NotNil(t, encrypted)
	assert.True(t, c.IsEncrypted(*encrypted))

	decrypted, err = c.DecryptPtr(encrypted)
	require.NoError(t, err)
	assert.Equal(t, value, *decrypted)
}

func TestFieldCipher_SelfTest(t *testing.T) {
	c := newTestCipher(t)
	assert.True(t, c.SelfTest())

	c.rand = failingReader{}
	assert.False(t, c.SelfTest())
}

func TestFieldCipher_Info(t *testing.T) {
	info := newTestCipher(t).Info()

	assert.Equal(t, "aes-256-cbc", info.CipherMethod)
	assert.Equal(t, 32, info.KeyLength)
	assert.Equal(t, 16, info.IVLength)
	assert.Equal(t, "<ENC>", info.Prefix)
	assert.Equal(t, "</ENC>", info.Suffix)
}

func TestPKCS7(t *testing.T) {
	padded := pkcs7Pad([]byte("abc"), 16)
	assert.Len(t, padded, 16)

	unpadded, err := pkcs7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), unpadded)

	full := pkcs7Pad(make([]byte, 16), 16)
	assert.Len(t, full, 32)

	_, err = pkcs7Unpad(append(make([]byte, 15), 0), 16)
	assert.ErrorIs(t, err, errInvalidPadding)

	_, err = pkcs7Unpad(append(make([]byte, 15), 17), 16)
	assert.ErrorIs(t, err, errInvalidPadding)

	_, err = pkcs7Unpad(make([]byte, 15), 16)
	assert.ErrorIs(t, err, errInvalidPadding)
}
