package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	erasureHTTP "github.com/allisson/treatment-register/internal/erasure/http"
	erasureRepository "github.com/allisson/treatment-register/internal/erasure/repository"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
	treatmentDomain "github.com/allisson/treatment-register/internal/treatment/domain"
)

// DeletionAuditRepository returns the deletion audit repository for the database driver.
func (c *Container) DeletionAuditRepository() (erasureUseCase.DeletionAuditRepository, error) {
	err := c.lazy(&c.deletionAuditRepoInit, "deletionAuditRepo", func() error {
		db, err := c.DB()
		if err != nil {
			return fmt.Errorf("failed to get database for deletion audit repository: %w", err)
		}
		switch c.config.DBDriver {
		case "mysql":
			c.deletionAuditRepo = erasureRepository.NewMySQLDeletionAuditRepository(db)
		case "postgres":
			c.deletionAuditRepo = erasureRepository.NewPostgreSQLDeletionAuditRepository(db)
		default:
			return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.deletionAuditRepo, nil
}

// DeletionAuditUseCase returns the deletion audit log.
func (c *Container) DeletionAuditUseCase() (erasureUseCase.DeletionAuditUseCase, error) {
	err := c.lazy(&c.deletionAuditUseCaseInit, "deletionAuditUseCase", func() error {
		repo, err := c.DeletionAuditRepository()
		if err != nil {
			return fmt.Errorf("failed to get deletion audit repository for deletion audit use case: %w", err)
		}
		signer, err := c.AuditSigner()
		if err != nil {
			return fmt.Errorf("failed to get audit signer for deletion audit use case: %w", err)
		}
		c.deletionAuditUseCase = erasureUseCase.NewDeletionAuditUseCase(
			repo,
			signer,
			c.config.DeletionAuditRetention,
			nil,
			c.Logger(),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.deletionAuditUseCase, nil
}

// ErasureUseCase returns the user erasure orchestrator.
func (c *Container) ErasureUseCase() (erasureUseCase.ErasureUseCase, error) {
	err := c.lazy(&c.erasureUseCaseInit, "erasureUseCase", func() (err error) {
		c.erasureUseCase, err = c.initErasureUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.erasureUseCase, nil
}

// RetentionPurgeUseCase returns the retention purge job.
func (c *Container) RetentionPurgeUseCase() (erasureUseCase.RetentionPurgeUseCase, error) {
	err := c.lazy(&c.retentionPurgeUseCaseInit, "retentionPurgeUseCase", func() error {
		auditUseCase, err := c.DeletionAuditUseCase()
		if err != nil {
			return fmt.Errorf("failed to get deletion audit use case for retention purge: %w", err)
		}

		var useCase erasureUseCase.RetentionPurgeUseCase = erasureUseCase.NewRetentionPurgeUseCase(
			auditUseCase,
			c.config.PurgeInterval,
			nil,
			c.Logger(),
		)
		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				return fmt.Errorf("failed to get business metrics for retention purge: %w", err)
			}
			useCase = erasureUseCase.NewRetentionPurgeUseCaseWithMetrics(useCase, businessMetrics)
		}
		c.retentionPurgeUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.retentionPurgeUseCase, nil
}

// ErasureHandler returns the HTTP handler for erasure requests.
func (c *Container) ErasureHandler() (*erasureHTTP.ErasureHandler, error) {
	err := c.lazy(&c.erasureHandlerInit, "erasureHandler", func() error {
		useCase, err := c.ErasureUseCase()
		if err != nil {
			return fmt.Errorf("failed to get erasure use case for erasure handler: %w", err)
		}
		c.erasureHandler = erasureHTTP.NewErasureHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.erasureHandler, nil
}

// DeletionAuditHandler returns the HTTP handler for the deletion audit log.
func (c *Container) DeletionAuditHandler() (*erasureHTTP.DeletionAuditHandler, error) {
	err := c.lazy(&c.deletionAuditHandlerInit, "deletionAuditHandler", func() error {
		useCase, err := c.DeletionAuditUseCase()
		if err != nil {
			return fmt.Errorf("failed to get deletion audit use case for deletion audit handler: %w", err)
		}
		c.deletionAuditHandler = erasureHTTP.NewDeletionAuditHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.deletionAuditHandler, nil
}

// ErasureDependents returns the records owned by a user and how erasure handles them:
// treatments keep their register entry with an anonymized owner, notifications are
// deleted.
func (c *Container) ErasureDependents() ([]erasureUseCase.Dependent, error) {
	treatmentRepo, err := c.TreatmentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment repository for erasure: %w", err)
	}

	notificationRepo, err := c.NotificationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification repository for erasure: %w", err)
	}

	return []erasureUseCase.Dependent{
		{
			Name:   "treatments",
			Policy: erasureDomain.PolicyAnonymize,
			Count:  treatmentRepo.CountByOwner,
			Anonymize: func(ctx context.Context, ownerID uuid.UUID, anonymizedSubjectID string) (int64, error) {
				return treatmentRepo.AnonymizeOwner(
					ctx,
					ownerID,
					treatmentDomain.AnonymizedOwnerLabel(anonymizedSubjectID),
				)
			},
		},
		{
			Name:   "notifications",
			Policy: erasureDomain.PolicyCascade,
			Count:  notificationRepo.CountByUser,
			Delete: notificationRepo.DeleteByUser,
		},
	}, nil
}

// initErasureUseCase creates the erasure orchestrator with all its dependencies.
func (c *Container) initErasureUseCase() (erasureUseCase.ErasureUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for erasure use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for erasure use case: %w", err)
	}

	auditUseCase, err := c.DeletionAuditUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion audit use case for erasure use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for erasure use case: %w", err)
	}

	dependents, err := c.ErasureDependents()
	if err != nil {
		return nil, err
	}

	baseUseCase, err := erasureUseCase.NewErasureUseCase(
		txManager,
		userRepo,
		auditUseCase,
		outboxRepo,
		dependents,
		nil,
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create erasure use case: %w", err)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for erasure use case: %w", err)
		}
		return erasureUseCase.NewErasureUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
