package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	erasureUseCase "github.com/allisson/treatment-register/internal/erasure/usecase"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
	userUseCase "github.com/allisson/treatment-register/internal/user/usecase"
)

type mockRetentionPurgeUseCase struct {
	mock.Mock
}

func (m *mockRetentionPurgeUseCase) Run(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRetentionPurgeUseCase) DryRun(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRetentionPurgeUseCase) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

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

// mockDeletionAuditUseCase only backs Verify. The remaining methods are unused by the CLI.
type mockDeletionAuditUseCase struct {
	mock.Mock
	erasureUseCase.DeletionAuditUseCase
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

// mockUserUseCase only backs Register.
type mockUserUseCase struct {
	mock.Mock
	userUseCase.UseCase
}

func (m *mockUserUseCase) Register(
	ctx context.Context,
	input userUseCase.RegisterInput,
) (*userDomain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}
