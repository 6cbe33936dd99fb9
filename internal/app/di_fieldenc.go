package app

import (
	"github.com/allisson/treatment-register/internal/crypto/fieldenc"
	cryptoService "github.com/allisson/treatment-register/internal/crypto/service"
	treatmentDomain "github.com/allisson/treatment-register/internal/treatment/domain"
	treatmentRepository "github.com/allisson/treatment-register/internal/treatment/repository"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
	userRepository "github.com/allisson/treatment-register/internal/user/repository"
)

// SensitiveFields returns the encrypted field names per entity type.
func (c *Container) SensitiveFields() (map[string][]string, error) {
	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, err
	}
	return fieldenc.Describe(c.userInterceptor(cipher), c.treatmentInterceptor(cipher)), nil
}

func (c *Container) userInterceptor(cipher cryptoService.Cipher) *fieldenc.Interceptor[userDomain.User] {
	return fieldenc.New(
		userRepository.EntityType,
		cipher,
		c.config.FieldEncryptionEnabled,
		c.Logger(),
		userRepository.SensitiveFields()...,
	)
}

func (c *Container) treatmentInterceptor(
	cipher cryptoService.Cipher,
) *fieldenc.Interceptor[treatmentDomain.Treatment] {
	return fieldenc.New(
		treatmentRepository.EntityType,
		cipher,
		c.config.FieldEncryptionEnabled,
		c.Logger(),
		treatmentRepository.SensitiveFields()...,
	)
}
