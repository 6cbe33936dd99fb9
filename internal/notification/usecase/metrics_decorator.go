package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/metrics"
	"github.com/allisson/treatment-register/internal/notification/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
)

// notificationUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type notificationUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewNotificationUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewNotificationUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &notificationUseCaseWithMetrics{next: useCase, metrics: m}
}

func (n *notificationUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	n.metrics.RecordOperation(ctx, "notification", operation, status)
	n.metrics.RecordDuration(ctx, "notification", operation, time.Since(start), status)
}

func (n *notificationUseCaseWithMetrics) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	offset, limit int,
) ([]*domain.Notification, error) {
	start := time.Now()
	notifications, err := n.next.ListByUser(ctx, userID, unreadOnly, offset, limit)
	n.record(ctx, "notification_list", start, err)
	return notifications, err
}

func (n *notificationUseCaseWithMetrics) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	start := time.Now()
	err := n.next.MarkRead(ctx, id, userID)
	n.record(ctx, "notification_mark_read", start, err)
	return err
}

func (n *notificationUseCaseWithMetrics) HandleTreatmentSubmitted(
	ctx context.Context,
	event *outboxDomain.OutboxEvent,
) error {
	start := time.Now()
	err := n.next.HandleTreatmentSubmitted(ctx, event)
	n.record(ctx, "notification_treatment_submitted", start, err)
	return err
}

func (n *notificationUseCaseWithMetrics) HandleTreatmentReviewed(
	ctx context.Context,
	event *outboxDomain.OutboxEvent,
) error {
	start := time.Now()
	err := n.next.HandleTreatmentReviewed(ctx, event)
	n.record(ctx, "notification_treatment_reviewed", start, err)
	return err
}
