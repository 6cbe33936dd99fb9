package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/notification/domain"
)

// MySQLNotificationRepository handles notification persistence for MySQL. UUIDs are
// stored as BINARY(16).
type MySQLNotificationRepository struct {
	db *sql.DB
}

// NewMySQLNotificationRepository creates a new MySQLNotificationRepository
func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{db: db}
}

func binaryID(id uuid.UUID) ([]byte, error) {
	raw, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal id")
	}
	return raw, nil
}

// Create inserts a notification.
func (r *MySQLNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	id, err := binaryID(n.ID)
	if err != nil {
		return err
	}
	userID, err := binaryID(n.UserID)
	if err != nil {
		return err
	}
	var treatmentID any
	if n.TreatmentID != nil {
		if treatmentID, err = binaryID(*n.TreatmentID); err != nil {
			return err
		}
	}

	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := querier.ExecContext(ctx, query, id, userID, n.Type, n.Message, treatmentID, n.Read, n.CreatedAt); err != nil {
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListByUser returns the notifications of userID newest first.
func (r *MySQLNotificationRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
	offset, limit int,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	uid, err := binaryID(userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications
			  WHERE user_id = ? AND (? = FALSE OR is_read = FALSE)
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, uid, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close() //nolint:errcheck

	notifications := make([]*domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var id, owner, treatmentID []byte
		if err := rows.Scan(&id, &owner, &n.Type, &n.Message, &treatmentID, &n.Read, &n.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}
		if err := n.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal notification id")
		}
		if err := n.UserID.UnmarshalBinary(owner); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
		}
		if treatmentID != nil {
			var tid uuid.UUID
			if err := tid.UnmarshalBinary(treatmentID); err != nil {
				return nil, apperrors.Wrap(err, "failed to unmarshal treatment id")
			}
			n.TreatmentID = &tid
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
func (r *MySQLNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	nid, err := binaryID(id)
	if err != nil {
		return err
	}
	uid, err := binaryID(userID)
	if err != nil {
		return err
	}

	// MySQL reports zero affected rows for an unchanged row, so is_read is not filtered.
	result, err := querier.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`, nid, uid)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark notification as read")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = querier.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM notifications WHERE id = ? AND user_id = ?)`, nid, uid).Scan(&exists)
	if err != nil {
		return apperrors.Wrap(err, "failed to check notification")
	}
	if !exists {
		return domain.ErrNotificationNotFound
	}
	return nil
}

// CountByUser counts the notifications addressed to userID.
func (r *MySQLNotificationRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	uid, err := binaryID(userID)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ?`, uid).
		Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count notifications")
	}
	return count, nil
}

// DeleteByUser deletes every notification addressed to userID.
func (r *MySQLNotificationRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	uid, err := binaryID(userID)
	if err != nil {
		return 0, err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = ?`, uid)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete notifications")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return affected, nil
}
