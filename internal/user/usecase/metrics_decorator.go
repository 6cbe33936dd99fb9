package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/metrics"
	"github.com/allisson/treatment-register/internal/user/domain"
)

// userUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &userUseCaseWithMetrics{next: useCase, metrics: m}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, "user", operation, status)
	u.metrics.RecordDuration(ctx, "user", operation, time.Since(start), status)
}

func (u *userUseCaseWithMetrics) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Register(ctx, input)
	u.record(ctx, "user_register", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Update(ctx, id, input)
	u.record(ctx, "user_update", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Get(ctx, id)
	u.record(ctx, "user_get", start, err)
	return user, err
}

func (u *userUseCaseWithMetrics) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	start := time.Now()
	users, err := u.next.List(ctx, offset, limit)
	u.record(ctx, "user_list", start, err)
	return users, err
}

func (u *userUseCaseWithMetrics) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	start := time.Now()
	user, err := u.next.Authenticate(ctx, email, password)
	u.record(ctx, "user_authenticate", start, err)
	return user, err
}
