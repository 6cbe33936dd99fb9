package app

import (
	"fmt"

	treatmentHTTP "github.com/allisson/treatment-register/internal/treatment/http"
	treatmentRepository "github.com/allisson/treatment-register/internal/treatment/repository"
	treatmentUseCase "github.com/allisson/treatment-register/internal/treatment/usecase"
)

// TreatmentRepository returns the treatment repository with field encryption applied.
func (c *Container) TreatmentRepository() (treatmentRepository.Repository, error) {
	err := c.lazy(&c.treatmentRepoInit, "treatmentRepo", func() (err error) {
		c.treatmentRepo, err = c.initTreatmentRepository()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.treatmentRepo, nil
}

// TreatmentUseCase returns the treatment use case.
func (c *Container) TreatmentUseCase() (treatmentUseCase.UseCase, error) {
	err := c.lazy(&c.treatmentUseCaseInit, "treatmentUseCase", func() (err error) {
		c.treatmentUseCase, err = c.initTreatmentUseCase()
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.treatmentUseCase, nil
}

// TreatmentHandler returns the HTTP handler for treatments.
func (c *Container) TreatmentHandler() (*treatmentHTTP.TreatmentHandler, error) {
	err := c.lazy(&c.treatmentHandlerInit, "treatmentHandler", func() error {
		useCase, err := c.TreatmentUseCase()
		if err != nil {
			return fmt.Errorf("failed to get treatment use case for treatment handler: %w", err)
		}
		c.treatmentHandler = treatmentHTTP.NewTreatmentHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.treatmentHandler, nil
}

// initTreatmentRepository selects the SQL repository for the driver and wraps it with
// the treatment encryption interceptor.
func (c *Container) initTreatmentRepository() (treatmentRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for treatment repository: %w", err)
	}

	cipher, err := c.FieldCipher()
	if err != nil {
		return nil, fmt.Errorf("failed to get field cipher for treatment repository: %w", err)
	}

	var base treatmentRepository.Repository
	switch c.config.DBDriver {
	case "mysql":
		base = treatmentRepository.NewMySQLTreatmentRepository(db)
	case "postgres":
		base = treatmentRepository.NewPostgreSQLTreatmentRepository(db)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	return treatmentRepository.NewEncryptedTreatmentRepository(base, c.treatmentInterceptor(cipher)), nil
}

// initTreatmentUseCase creates the treatment use case with all its dependencies.
func (c *Container) initTreatmentUseCase() (treatmentUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for treatment use case: %w", err)
	}

	repo, err := c.TreatmentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment repository for treatment use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for treatment use case: %w", err)
	}

	baseUseCase := treatmentUseCase.NewTreatmentUseCase(txManager, repo, outboxRepo, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for treatment use case: %w", err)
		}
		return treatmentUseCase.NewTreatmentUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
