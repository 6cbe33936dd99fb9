package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
)

type mockErasureUseCase struct {
	mock.Mock
}

func (m *mockErasureUseCase) CanErase(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.Eligibility, error) {
	args := m.Called(ctx, subjectID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.Eligibility), args.Error(1)
}

func (m *mockErasureUseCase) Preview(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.PreviewResult, error) {
	args := m.Called(ctx, subjectID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.PreviewResult), args.Error(1)
}

func (m *mockErasureUseCase) Erase(
	ctx context.Context,
	input erasureUseCase.EraseInput,
) (*erasureDomain.ErasureResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureDomain.ErasureResult), args.Error(1)
}

type mockDeletionAuditUseCase struct {
	mock.Mock
}

func (m *mockDeletionAuditUseCase) audits(args mock.Arguments) ([]*erasureDomain.DeletionAudit, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*erasureDomain.DeletionAudit), args.Error(1)
}

func (m *mockDeletionAuditUseCase) Append(
	ctx context.Context,
	input erasureUseCase.AppendInput,
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
	return m.audits(m.Called(ctx, asOf))
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
	return m.audits(m.Called(ctx, offset, limit, from, to))
}

func (m *mockDeletionAuditUseCase) ListByPerformer(
	ctx context.Context,
	performedBy uuid.UUID,
	offset, limit int,
) ([]*erasureDomain.DeletionAudit, error) {
	return m.audits(m.Called(ctx, performedBy, offset, limit))
}

func (m *mockDeletionAuditUseCase) Verify(
	ctx context.Context,
	from, to time.Time,
) (*erasureUseCase.VerificationReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*erasureUseCase.VerificationReport), args.Error(1)
}
