package app

import (
	"context"
	"fmt"
	"log/slog"

	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	outboxRepository "github.com/allisson/treatment-register/internal/outbox/repository"
	outboxUseCase "github.com/allisson/treatment-register/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository for the database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	err := c.lazy(&c.outboxRepoInit, "outboxRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for outbox repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.outboxRepo, nil
}

// OutboxUseCase returns the outbox processor with every event handler registered.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	err := c.lazy(&c.outboxUseCaseInit, "outboxUseCase", func() (err error) {
		c.outboxUseCase, err = c.initOutboxUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.outboxUseCase, nil
}

// EventDispatcher builds the dispatcher that routes outbox events to their handlers.
func (c *Container) EventDispatcher() (*outboxUseCase.EventDispatcher, error) {
	notifications, err := c.NotificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification use case for event dispatcher: %w", err)
	}

	logger := c.Logger()
	dispatcher := outboxUseCase.NewEventDispatcher(logger)
	dispatcher.Register(outboxDomain.EventTreatmentSubmitted, notifications.HandleTreatmentSubmitted)
	dispatcher.Register(outboxDomain.EventTreatmentValidated, notifications.HandleTreatmentReviewed)
	dispatcher.Register(outboxDomain.EventTreatmentChangesRequested, notifications.HandleTreatmentReviewed)
	dispatcher.Register(outboxDomain.EventUserErased, func(ctx context.Context, event *outboxDomain.OutboxEvent) error {
		logger.InfoContext(ctx, "user erasure published", slog.String("event_id", event.ID.String()))
		return nil
	})
	return dispatcher, nil
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	dispatcher, err := c.EventDispatcher()
	if err != nil {
		return nil, err
	}

	useCaseConfig := outboxUseCase.Config{
		Interval:   c.config.WorkerInterval,
		BatchSize:  c.config.WorkerBatchSize,
		MaxRetries: c.config.WorkerMaxRetries,
	}

	return outboxUseCase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, dispatcher, c.Logger()), nil
}
