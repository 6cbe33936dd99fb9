package usecase

import (
	"context"
	"log/slog"
	"time"
)

type retentionPurgeUseCase struct {
	auditUseCase DeletionAuditUseCase
	interval     time.Duration
	now          Clock
	logger       *slog.Logger
}

// NewRetentionPurgeUseCase creates the retention purge job. interval is only used by Start.
func NewRetentionPurgeUseCase(
	auditUseCase DeletionAuditUseCase,
	interval time.Duration,
	now Clock,
	logger *slog.Logger,
) RetentionPurgeUseCase {
	if now == nil {
		now = time.Now
	}
	return &retentionPurgeUseCase{
		auditUseCase: auditUseCase,
		interval:     interval,
		now:          now,
		logger:       logger,
	}
}

// Run deletes deletion audit records expired at now. Running it twice with no new
// expirations deletes nothing the second time.
func (r *retentionPurgeUseCase) Run(ctx context.Context, now time.Time) (int64, error) {
	count, err := r.auditUseCase.PurgeExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "expired deletion audit records purged",
		slog.Int64("count", count),
		slog.Time("as_of", now),
	)
	return count, nil
}

// DryRun counts deletion audit records expired at now.
func (r *retentionPurgeUseCase) DryRun(ctx context.Context, now time.Time) (int64, error) {
	return r.auditUseCase.CountExpired(ctx, now)
}

// Start purges once immediately and then every interval until ctx is cancelled.
func (r *retentionPurgeUseCase) Start(ctx context.Context) error {
	r.logger.Info("starting deletion audit retention purge", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping deletion audit retention purge")
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *retentionPurgeUseCase) runOnce(ctx context.Context) {
	if _, err := r.Run(ctx, r.now().UTC()); err != nil {
		r.logger.Error("failed to purge expired deletion audit records", slog.Any("error", err))
	}
}
