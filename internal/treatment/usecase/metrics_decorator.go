package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/treatment-register/internal/auth/domain"
	"github.com/allisson/treatment-register/internal/metrics"
	"github.com/allisson/treatment-register/internal/treatment/domain"
)

// treatmentUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type treatmentUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewTreatmentUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewTreatmentUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &treatmentUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *treatmentUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, "treatment", operation, status)
	u.metrics.RecordDuration(ctx, "treatment", operation, time.Since(start), status)
}

func (u *treatmentUseCaseWithMetrics) Create(
	ctx context.Context,
	principal *authDomain.Principal,
	input TreatmentInput,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Create(ctx, principal, input)
	u.record(ctx, "treatment_create", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) Update(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
	input TreatmentInput,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Update(ctx, principal, id, input)
	u.record(ctx, "treatment_update", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) Get(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Get(ctx, principal, id)
	u.record(ctx, "treatment_get", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) List(
	ctx context.Context,
	principal *authDomain.Principal,
	status *domain.Status,
	offset, limit int,
) ([]*domain.Treatment, error) {
	start := time.Now()
	treatments, err := u.next.List(ctx, principal, status, offset, limit)
	u.record(ctx, "treatment_list", start, err)
	return treatments, err
}

func (u *treatmentUseCaseWithMetrics) Delete(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) error {
	start := time.Now()
	err := u.next.Delete(ctx, principal, id)
	u.record(ctx, "treatment_delete", start, err)
	return err
}

func (u *treatmentUseCaseWithMetrics) Submit(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Submit(ctx, principal, id)
	u.record(ctx, "treatment_submit", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) Validate(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Validate(ctx, principal, id)
	u.record(ctx, "treatment_validate", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) RequestChanges(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
	comment string,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.RequestChanges(ctx, principal, id, comment)
	u.record(ctx, "treatment_request_changes", start, err)
	return treatment, err
}

func (u *treatmentUseCaseWithMetrics) Archive(
	ctx context.Context,
	principal *authDomain.Principal,
	id uuid.UUID,
) (*domain.Treatment, error) {
	start := time.Now()
	treatment, err := u.next.Archive(ctx, principal, id)
	u.record(ctx, "treatment_archive", start, err)
	return treatment, err
}
