package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/treatment-register/internal/outbox/domain"
)

func TestMySQLOutboxEventRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewMySQLOutboxEventRepository(db)
		event := newEvent(t, domain.EventTreatmentSubmitted, time.Now())
		id, _ := event.ID.MarshalBinary()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
			WithArgs(id, event.EventType, event.Payload, string(event.Status), 0, nil, nil,
				event.CreatedAt, event.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetPendingEvents", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewMySQLOutboxEventRepository(db)
		event := newEvent(t, domain.EventTreatmentValidated, time.Now())
		id, _ := event.ID.MarshalBinary()

		rows := sqlmock.NewRows([]string{
			"id", "event_type", "payload", "status", "retries", "last_error", "processed_at", "created_at", "updated_at",
		}).AddRow(id, event.EventType, event.Payload, "pending", 0, nil, nil, event.CreatedAt, event.UpdatedAt)
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
			WithArgs("pending", 5).
			WillReturnRows(rows)

		events, err := repo.GetPendingEvents(ctx, 5)

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, event.ID, events[0].ID)
		assert.Equal(t, domain.OutboxEventStatusPending, events[0].Status)
		assert.Nil(t, events[0].LastError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UpdateError", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		repo := NewMySQLOutboxEventRepository(db)
		event := newEvent(t, domain.EventUserErased, time.Now())

		mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events")).WillReturnError(errors.New("deadlock"))

		err = repo.Update(ctx, event)

		assert.ErrorContains(t, err, "failed to update outbox event")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
