// Package repository provides data persistence implementations for notifications.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/notification/domain"
)

const notificationColumns = "id, user_id, type, message, treatment_id, is_read, created_at"

// PostgreSQLNotificationRepository handles notification persistence for PostgreSQL
type PostgreSQLNotificationRepository struct {
	db *sql.DB
}

// NewPostgreSQLNotificationRepository creates a new PostgreSQLNotificationRepository
func NewPostgreSQLNotificationRepository(db *sql.DB) *PostgreSQLNotificationRepository {
	return &PostgreSQLNotificationRepository{db: db}
}

// Create inserts a notification.
func (r *PostgreSQLNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Message,
		uuid.NullUUID{UUID: derefUUID(n.TreatmentID), Valid: n.TreatmentID != nil}, n.Read, n.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListByUser returns the notifications of userID newest first.
func (r *PostgreSQLNotificationRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	offset, limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + notificationColumns + ` FROM notifications
			  WHERE user_id = $1 AND (NOT $2::boolean OR NOT is_read)
			  ORDER BY created_at DESC, id DESC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close() //nolint:errcheck

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var treatmentID uuid.NullUUID
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &treatmentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}
		if treatmentID.Valid {
			n.TreatmentID = &treatmentID.UUID
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate notifications")
	}
	return notifications, nil
}

// MarkRead marks a notification of userID as read. Returns ErrNotificationNotFound when
// it does not exist or belongs to another user.
func (r *PostgreSQLNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark notification as read")
	}
	return requireAffected(result)
}

// CountByUser counts the notifications addressed to userID.
func (r *PostgreSQLNotificationRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count notifications")
	}
	return count, nil
}

// DeleteByUser deletes every notification addressed to userID.
func (r *PostgreSQLNotificationRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete notifications")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return affected, nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
