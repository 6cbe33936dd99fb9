// Package usecase implements in-app notifications and the outbox handlers that
// produce them from treatment workflow events.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/notification/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// NotificationRepository defines notification persistence operations.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// RecipientDirectory resolves notification recipients.
type RecipientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*userDomain.User, error)
	ListIDsByRole(ctx context.Context, role userDomain.Role) ([]uuid.UUID, error)
}

// UseCase defines the notification operations.
type UseCase interface {
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*domain.Notification, error)

	// MarkRead marks a notification of userID as read.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error

	// HandleTreatmentSubmitted notifies every DPO that a treatment awaits review.
	HandleTreatmentSubmitted(ctx context.Context, event *outboxDomain.OutboxEvent) error

	// HandleTreatmentReviewed notifies the owner that a review was completed. Nothing is
	// sent when the owner was erased.
	HandleTreatmentReviewed(ctx context.Context, event *outboxDomain.OutboxEvent) error
}
