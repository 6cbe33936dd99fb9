package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/notification/domain"
	outboxDomain "github.com/allisson/treatment-register/internal/outbox/domain"
	userDomain "github.com/allisson/treatment-register/internal/user/domain"
)

// NotificationUseCase implements UseCase.
type NotificationUseCase struct {
	repo       NotificationRepository
	recipients RecipientDirectory
	logger     *slog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(
	repo NotificationRepository,
	recipients RecipientDirectory,
	logger *slog.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{repo: repo, recipients: recipients, logger: logger}
}

// ListByUser returns the notifications of userID newest first.
func (n *NotificationUseCase) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	offset, limit int,
) ([]*domain.Notification, error) {
	return n.repo.ListByUser(ctx, userID, unreadOnly, offset, limit)
}

// MarkRead marks a notification of userID as read.
func (n *NotificationUseCase) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return n.repo.MarkRead(ctx, id, userID)
}

func (n *NotificationUseCase) notify(
	ctx context.Context,
	userID uuid.UUID,
	notificationType domain.Type,
	message string,
	treatmentID uuid.UUID,
	now time.Time,
) error {
	return n.repo.Create(ctx, &domain.Notification{
		ID:          uuid.Must(uuid.NewV7()),
		UserID:      userID,
		Type:        notificationType,
		Message:     message,
		TreatmentID: &treatmentID,
		CreatedAt:   now,
	})
}

// HandleTreatmentSubmitted notifies every DPO except the submitter.
func (n *NotificationUseCase) HandleTreatmentSubmitted(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	var payload outboxDomain.TreatmentEventPayload
	if err := event.Decode(&payload); err != nil {
		return apperrors.Wrap(err, "failed to decode treatment event")
	}

	dpos, err := n.recipients.ListIDsByRole(ctx, userDomain.RoleDPO)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Treatment %q was submitted for review.", payload.TreatmentName)
	now := time.Now().UTC()
	for _, dpo := range dpos {
		if dpo == payload.ActorID {
			continue
		}
		if err := n.notify(ctx, dpo, domain.TypeTreatmentSubmitted, message, payload.TreatmentID, now); err != nil {
			return err
		}
	}
	return nil
}

// HandleTreatmentReviewed notifies the owner of a validated treatment or of requested changes.
func (n *NotificationUseCase) HandleTreatmentReviewed(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	var payload outboxDomain.TreatmentEventPayload
	if err := event.Decode(&payload); err != nil {
		return apperrors.Wrap(err, "failed to decode treatment event")
	}

	if payload.OwnerID == nil {
		return nil
	}
	if _, err := n.recipients.Get(ctx, *payload.OwnerID); err != nil {
		if apperrors.Is(err, userDomain.ErrUserNotFound) {
			n.logger.InfoContext(ctx, "skipping notification for erased owner",
				slog.String("treatment_id", payload.TreatmentID.String()),
			)
			return nil
		}
		return err
	}

	var notificationType domain.Type
	var message string
	switch event.EventType {
	case outboxDomain.EventTreatmentValidated:
		notificationType = domain.TypeTreatmentValidated
		message = fmt.Sprintf("Your treatment %q was validated.", payload.TreatmentName)
	case outboxDomain.EventTreatmentChangesRequested:
		notificationType = domain.TypeTreatmentChangesRequested
		message = fmt.Sprintf("Changes were requested on your treatment %q.", payload.TreatmentName)
		if payload.Comment != nil {
			message += " " + *payload.Comment
		}
	default:
		return fmt.Errorf("unexpected event type %q", event.EventType)
	}

	return n.notify(ctx, *payload.OwnerID, notificationType, message, payload.TreatmentID, time.Now().UTC())
}
