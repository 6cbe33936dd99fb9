package app

import (
	"fmt"

	userHTTP "github.com/allisson/treatment-register/internal/user/http"
	userRepository "github.com/allisson/treatment-register/internal/user/repository"
	userUseCase "github.com/allisson/treatment-register/internal/user/usecase"
)

// UserRepository returns the user repository with field encryption applied.
func (c *Container) UserRepository() (userRepository.Repository, error) {
	err := c.lazy(&c.userRepoInit, "userRepo", func() (err error) {
		c.userRepo, err = c.initUserRepository()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.userRepo, nil
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	err := c.lazy(&c.userUseCaseInit, "userUseCase", func() (err error) {
		c.userUseCase, err = c.initUserUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.userUseCase, nil
}

// UserHandler returns the HTTP handler for user accounts.
func (c *Container) UserHandler() (*userHTTP.UserHandler, error) {
	err := c.lazy(&c.userHandlerInit, "userHandler", func() error {
		useCase, err := c.UserUseCase()
		if err != nil {
			return fmt.Errorf("failed to get user use case for user handler: %w", err)
		}
		c.userHandler = userHTTP.NewUserHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.userHandler, nil
}

// initUserRepository selects the SQL repository for the driver and wraps it with the
// email encryption interceptor.
func (c *Container) initUserRepository() (userRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for user repository: %w", err)
	}

	var base userRepository.Repository
	switch c.config.DBDriver {
	case "mysql":
		base = userRepository.NewMySQLUserRepository(db)
	case "postgres":
		base = userRepository.NewPostgreSQLUserRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	return userRepository.NewEncryptedUserRepository(base, c.userInterceptor(cipher)), nil
}

// initUserUseCase creates the user use case with all its dependencies.
func (c *Container) initUserUseCase() (userUseCase.UseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	auditUseCase, err := c.DeletionAuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion audit use case for user use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, fmt.Errorf("failed to get password service for user use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	baseUseCase := userUseCase.NewUserUseCase(txManager, userRepo, auditUseCase, passwordService, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		return userUseCase.NewUserUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
