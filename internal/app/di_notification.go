package app

import (
	"fmt"

	notificationHTTP "github.com/allisson/treatment-register/internal/notification/http"
	notificationRepository "github.com/allisson/treatment-register/internal/notification/repository"
	notificationUseCase "github.com/allisson/treatment-register/internal/notification/usecase"
)

// NotificationRepository returns the notification repository for the database driver.
func (c *Container) NotificationRepository() (notificationUseCase.NotificationRepository, error) {
	err := c.lazy(&c.notificationRepoInit, "notificationRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for notification repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.notificationRepo = notificationRepository.NewMySQLNotificationRepository(db)
		case "postgres":
			c.notificationRepo = notificationRepository.NewPostgreSQLNotificationRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.notificationRepo, nil
}

// NotificationUseCase returns the notification use case.
func (c *Container) NotificationUseCase() (notificationUseCase.UseCase, error) {
	err := c.lazy(&c.notificationUseCaseInit, "notificationUseCase", func() (err error) {
		c.notificationUseCase, err = c.initNotificationUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.notificationUseCase, nil
}

// NotificationHandler returns the HTTP handler for notifications.
func (c *Container) NotificationHandler() (*notificationHTTP.NotificationHandler, error) {
	err := c.lazy(&c.notificationHandlerInit, "notificationHandler", func() error {
		useCase, err := c.NotificationUseCase()
		if err != nil {
			return fmt.Errorf("failed to get notification use case for notification handler: %w", err)
		}
		c.notificationHandler = notificationHTTP.NewNotificationHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.notificationHandler, nil
}

// initNotificationUseCase creates the notification use case with all its dependencies.
func (c *Container) initNotificationUseCase() (notificationUseCase.UseCase, error) {
	repo, err := c.NotificationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification repository for notification use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for notification use case: %w", err)
	}

	baseUseCase := notificationUseCase.NewNotificationUseCase(repo, userRepo, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for notification use case: %w", err)
		}
		return notificationUseCase.NewNotificationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
