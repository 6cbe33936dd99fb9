package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/metrics"
)

const metricsDomain = "erasure"

func operationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.Is(err, erasureDomain.ErrSelfErasureDenied), apperrors.Is(err, erasureDomain.ErrLastAdminDenied):
		return "blocked"
	default:
		return "error"
	}
}

// erasureUseCaseWithMetrics decorates ErasureUseCase with metrics instrumentation.
type erasureUseCaseWithMetrics struct {
	next    ErasureUseCase
	metrics metrics.BusinessMetrics
}

// NewErasureUseCaseWithMetrics wraps an ErasureUseCase with metrics recording.
func NewErasureUseCaseWithMetrics(useCase ErasureUseCase, m metrics.BusinessMetrics) ErasureUseCase {
	return &erasureUseCaseWithMetrics{next: useCase, metrics: m}
}

func (e *erasureUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := operationStatus(err)
	e.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	e.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (e *erasureUseCaseWithMetrics) CanErase(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.Eligibility, error) {
	start := time.Now()
	eligibility, err := e.next.CanErase(ctx, subjectID, actorID)
	e.record(ctx, "erasure_can_erase", start, err)
	return eligibility, err
}

func (e *erasureUseCaseWithMetrics) Preview(
	ctx context.Context,
	subjectID, actorID uuid.UUID,
) (*erasureDomain.PreviewResult, error) {
	start := time.Now()
	preview, err := e.next.Preview(ctx, subjectID, actorID)
	e.record(ctx, "erasure_preview", start, err)
	return preview, err
}

func (e *erasureUseCaseWithMetrics) Erase(
	ctx context.Context,
	input EraseInput,
) (*erasureDomain.ErasureResult, error) {
	start := time.Now()
	result, err := e.next.Erase(ctx, input)
	e.record(ctx, "erasure_erase", start, err)
	if err == nil && result != nil {
		for name, count := range result.Anonymized {
			e.metrics.RecordItems(ctx, metricsDomain, "erasure_erase", name, count)
		}
		for name, count := range result.Deleted {
			e.metrics.RecordItems(ctx, metricsDomain, "erasure_erase", name, count)
		}
		e.metrics.RecordItems(ctx, metricsDomain, "erasure_erase", "users", 1)
	}
	return result, err
}

// retentionPurgeUseCaseWithMetrics decorates RetentionPurgeUseCase with metrics instrumentation.
type retentionPurgeUseCaseWithMetrics struct {
	next    RetentionPurgeUseCase
	metrics metrics.BusinessMetrics
}

// NewRetentionPurgeUseCaseWithMetrics wraps a RetentionPurgeUseCase with metrics recording.
func NewRetentionPurgeUseCaseWithMetrics(
	useCase RetentionPurgeUseCase,
	m metrics.BusinessMetrics,
) RetentionPurgeUseCase {
	return &retentionPurgeUseCaseWithMetrics{next: useCase, metrics: m}
}

func (r *retentionPurgeUseCaseWithMetrics) Run(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	count, err := r.next.Run(ctx, now)

	status := operationStatus(err)
	r.metrics.RecordOperation(ctx, metricsDomain, "deletion_audit_purge", status)
	r.metrics.RecordDuration(ctx, metricsDomain, "deletion_audit_purge", time.Since(start), status)
	if err == nil {
		r.metrics.RecordItems(ctx, metricsDomain, "deletion_audit_purge", "deletion_audits", count)
	}

	return count, err
}

func (r *retentionPurgeUseCaseWithMetrics) DryRun(ctx context.Context, now time.Time) (int64, error) {
	return r.next.DryRun(ctx, now)
}

// Start delegates to the wrapped use case. Each tick goes through the undecorated Run.
func (r *retentionPurgeUseCaseWithMetrics) Start(ctx context.Context) error {
	return r.next.Start(ctx)
}
