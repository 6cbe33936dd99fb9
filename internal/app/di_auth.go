package app

import (
	"fmt"

	authHTTP "github.com/allisson/treatment-register/internal/auth/http"
	authService "github.com/allisson/treatment-register/internal/auth/service"
	authUseCase "github.com/allisson/treatment-register/internal/auth/usecase"
)

// PasswordService returns the Argon2id password service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	err := c.lazy(&c.passwordServiceInit, "passwordService", func() (err error) {
		c.passwordService, err = authService.NewPasswordService()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.passwordService, nil
}

// TokenService returns the bearer token service.
func (c *Container) TokenService() (authService.TokenService, error) {
	err := c.lazy(&c.tokenServiceInit, "tokenService", func() error {
		tokenService, err := authService.NewTokenService(c.config.AuthJWTSecret, c.config.AuthTokenExpiration)
		if err != nil {
			return fmt.Errorf("failed to create token service: %w", err)
		}
		c.tokenService = tokenService
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenService, nil
}

// TokenUseCase returns the token use case.
func (c *Container) TokenUseCase() (authUseCase.TokenUseCase, error) {
	err := c.lazy(&c.tokenUseCaseInit, "tokenUseCase", func() (err error) {
		c.tokenUseCase, err = c.initTokenUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.tokenUseCase, nil
}

// TokenHandler returns the HTTP handler of the token endpoint.
func (c *Container) TokenHandler() (*authHTTP.TokenHandler, error) {
	err := c.lazy(&c.tokenHandlerInit, "tokenHandler", func() error {
		tokenUseCase, err := c.TokenUseCase()
		if err != nil {
			return fmt.Errorf("failed to get token use case for token handler: %w", err)
		}
		c.tokenHandler = authHTTP.NewTokenHandler(tokenUseCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenHandler, nil
}

// initTokenUseCase creates the token use case with all its dependencies.
func (c *Container) initTokenUseCase() (authUseCase.TokenUseCase, error) {
	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for token use case: %w", err)
	}

	tokenService, err := c.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to get token service for token use case: %w", err)
	}

	var attempts authService.LoginAttemptTracker
	if c.config.LoginLockoutEnabled {
		attempts = authService.NewMemoryLoginAttemptTracker(
			c.config.LoginMaxFailedAttempts,
			c.config.LoginFailureWindow,
			c.config.LoginLockoutDuration,
		)
	}

	baseUseCase := authUseCase.NewTokenUseCase(userUseCase, tokenService, attempts, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for token use case: %w", err)
		}
		return authUseCase.NewTokenUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
