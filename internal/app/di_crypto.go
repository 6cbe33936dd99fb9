package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/treatment-register/internal/crypto/domain"
	cryptoService "github.com/allisson/treatment-register/internal/crypto/service"
	erasureService "github.com/allisson/treatment-register/internal/erasure/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// FieldCipher returns the field cipher. It fails when the encryption key is missing,
// too short or cannot be unsealed, so the server never becomes ready with a bad key.
func (c *Container) FieldCipher() (*cryptoService.FieldCipher, error) {
	err := c.lazy(&c.fieldCipherInit, "fieldCipher", func() (err error) {
		c.fieldCipher, err = c.initFieldCipher()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.fieldCipher, nil
}

// AuditSigner returns the deletion audit signer derived from the encryption key.
func (c *Container) AuditSigner() (erasureService.AuditSigner, error) {
	err := c.lazy(&c.auditSignerInit, "auditSigner", func() (err error) {
		c.auditSigner, err = c.initAuditSigner()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.auditSigner, nil
}

// loadEncryptionKey returns the field encryption key, unsealing it with the KMS when
// configured. The caller must Close the key.
func (c *Container) loadEncryptionKey() (*cryptoDomain.EncryptionKey, error) {
	if c.config.UseKMS() {
		c.Logger().Info("unsealing encryption key with KMS", slog.String("kms_provider", c.config.KMSProvider))
		key, err := cryptoService.UnsealEncryptionKey(
			context.Background(),
			c.KMSService(),
			c.config.KMSKeyURI,
			c.config.EncryptionKeyCiphertext,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to unseal encryption key: %w", err)
		}
		return key, nil
	}

	key, err := cryptoDomain.NewEncryptionKey(c.config.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	return key, nil
}

// initFieldCipher creates the field cipher and checks it with a round trip.
func (c *Container) initFieldCipher() (*cryptoService.FieldCipher, error) {
	key, err := c.loadEncryptionKey()
	if err != nil {
		return nil, err
	}
	defer key.Close()

	cipher, err := cryptoService.NewFieldCipherFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create field cipher: %w", err)
	}
	if !cipher.SelfTest() {
		return nil, fmt.Errorf("field cipher self-test failed")
	}

	if !c.config.FieldEncryptionEnabled {
		c.Logger().Warn("field encryption is disabled, sensitive fields are stored in plaintext")
	}
	return cipher, nil
}

// initAuditSigner creates the deletion audit signer.
func (c *Container) initAuditSigner() (erasureService.AuditSigner, error) {
	key, err := c.loadEncryptionKey()
	if err != nil {
		return nil, err
	}
	defer key.Close()

	signer, err := erasureService.NewAuditSigner(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit signer: %w", err)
	}
	return signer, nil
}
