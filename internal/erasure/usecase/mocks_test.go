package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

type mockDeletionAuditRepository struct {
	mock.Mock
}

func (m *mockDeletionAuditRepository) Create(ctx context.Context, audit *erasureDomain.DeletionAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *mockDeletionAuditRepository) Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditRepository) ExistsByIdentityHash(ctx context.Context, identityHash string) (bool, error) {
	args := m.Called(ctx, identityHash)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeletionAuditRepository) FindExpired(
	ctx context.Context,
	asOf time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditRepository) DeleteExpired(ctx context.Context, asOf time.Time, dryRun bool) (int64, error) {
	args := m.Called(ctx, asOf, dryRun)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDeletionAuditRepository) Statistics(
	ctx context.Context,
	from, to *time.Time,
) (*erasureDomain.Statistics, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.Statistics), args.Error(1)
}

func (m *mockDeletionAuditRepository) List(
	ctx context.Context,
	offset, limit int,
	from, to *time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, offset, limit, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditRepository) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, performedBy, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Get(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

func (m *mockUserRepository) CountByRole(ctx context.Context, role userDomain.Role) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockAuditSigner struct {
	mock.Mock
}

func (m *mockAuditSigner) Sign(audit *erasureDomain.DeletionAudit) ([]byte, error) {
	args := m.Called(audit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockAuditSigner) Verify(audit *erasureDomain.DeletionAudit) error {
	args := m.Called(audit)
	return args.Error(0)
}

type mockDeletionAuditUseCase struct {
	mock.Mock
}

func (m *mockDeletionAuditUseCase) Append(
	ctx context.Context,
	input AppendInput,
) (*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) WasIdentityErased(ctx context.Context, naturalID string) (bool, error) {
	args := m.Called(ctx, naturalID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeletionAuditUseCase) FindExpired(
	ctx context.Context,
	asOf time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) PurgeExpired(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDeletionAuditUseCase) CountExpired(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockDeletionAuditUseCase) Statistics(
	ctx context.Context,
	from, to *time.Time,
) (*erasureDomain.Statistics, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.Statistics), args.Error(1)
}

func (m *mockDeletionAuditUseCase) Get(ctx context.Context, id uuid.UUID) (*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) List(
	ctx context.Context,
	offset, limit int,
	from, to *time.Time,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, offset, limit, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	args := m.Called(ctx, performedBy, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) Verify(ctx context.Context, from, to time.Time) (*VerificationReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VerificationReport), args.Error(1)
}

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordItems(ctx context.Context, domain, operation, kind string, count int64) {
	m.Called(ctx, domain, operation, kind, count)
}
