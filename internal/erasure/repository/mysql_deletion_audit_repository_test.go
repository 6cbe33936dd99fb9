package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	erasureDomain "github.com/allisson/treatment-register/internal/erasure/domain"
)

func newMySQLMockRepo(t *testing.T) (*MySQLDeletionAuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewMySQLDeletionAuditRepository(db), mock
}

func mysqlAuditRow(audit *erasureDomain.DeletionAudit, performedBy []byte) []driver.Value {
	id, _ := audit.ID.MarshalBinary()
	var performer, retentionUntil any
	if performedBy != nil {
		performer = performedBy
	}
	if audit.RetentionUntil != nil {
		retentionUntil = *audit.RetentionUntil
	}
	return []driver.Value{
		id,
		audit.SubjectIdentityHash,
		audit.AnonymizedSubjectID,
		performer,
		*audit.Reason,
		*audit.SourceIPAddress,
		audit.PerformedAt,
		retentionUntil,
		[]byte(`{"email_domain":"example.com"}`),
		audit.Signature,
	}
}

var mysqlAuditColumnNames = []string{
	"id", "subject_identity_hash", "anonymized_subject_id", "performed_by", "reason",
	"source_ip_address", "performed_at", "retention_until", "metadata", "signature",
}

func TestMySQLDeletionAuditRepository_Create(t *testing.T) {
	repo, mock := newMySQLMockRepo(t)
	adminID := uuid.Must(uuid.NewV7())
	audit := newTestAudit(&adminID, time.Now(), nil)

	id, _ := audit.ID.MarshalBinary()
	admin, _ := adminID.MarshalBinary()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO deletion_audits")).
		WithArgs(id, audit.SubjectIdentityHash, audit.AnonymizedSubjectID, admin, audit.Reason,
			audit.SourceIPAddress, audit.PerformedAt, audit.RetentionUntil, sqlmock.AnyArg(), audit.Signature).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), audit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDeletionAuditRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := newMySQLMockRepo(t)
		adminID := uuid.Must(uuid.NewV7())
		admin, _ := adminID.MarshalBinary()
		audit := newTestAudit(&adminID, time.Now(), nil)
		id, _ := audit.ID.MarshalBinary()

		mock.ExpectQuery(regexp.QuoteMeta("FROM deletion_audits WHERE id = ?")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(mysqlAuditColumnNames).AddRow(mysqlAuditRow(audit, admin)...))

		got, err := repo.Get(context.Background(), audit.ID)

		require.NoError(t, err)
		assert.Equal(t, audit.ID, got.ID)
		assert.Equal(t, adminID, *got.PerformedBy)
		assert.Nil(t, got.RetentionUntil)
		assert.Equal(t, "example.com", got.Metadata["email_domain"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NullPerformer", func(t *testing.T) {
		repo, mock := newMySQLMockRepo(t)
		audit := newTestAudit(nil, time.Now(), nil)

		mock.ExpectQuery(regexp.QuoteMeta("FROM deletion_audits WHERE id = ?")).
			WillReturnRows(sqlmock.NewRows(mysqlAuditColumnNames).AddRow(mysqlAuditRow(audit, nil)...))

		got, err := repo.Get(context.Background(), audit.ID)

		require.NoError(t, err)
		assert.Nil(t, got.PerformedBy)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMySQLMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM deletion_audits WHERE id = ?")).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), uuid.New())

		assert.ErrorIs(t, err, erasureDomain.ErrDeletionAuditNotFound)
	})
}

func TestMySQLDeletionAuditRepository_DeleteExpired(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("DryRunCounts", func(t *testing.T) {
		repo, mock := newMySQLMockRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT COUNT(*) FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < ?",
		)).WithArgs(asOf).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

		count, err := repo.DeleteExpired(context.Background(), asOf, true)

		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deletes", func(t *testing.T) {
		repo, mock := newMySQLMockRepo(t)

		mock.ExpectExec(regexp.QuoteMeta(
			"DELETE FROM deletion_audits WHERE retention_until IS NOT NULL AND retention_until < ?",
		)).WithArgs(asOf).WillReturnResult(sqlmock.NewResult(0, 2))

		count, err := repo.DeleteExpired(context.Background(), asOf, false)

		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMySQLDeletionAuditRepository_Statistics(t *testing.T) {
	repo, mock := newMySQLMockRepo(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	firstAt := from.Add(time.Hour)
	lastAt := from.Add(72 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM deletion_audits WHERE performed_at >= ?")).
		WithArgs(from).
		WillReturnRows(sqlmock.NewRows([]string{"total", "performers", "first", "last"}).
			AddRow(int64(5), int64(2), firstAt, lastAt))

	stats, err := repo.Statistics(context.Background(), &from, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(2), stats.DistinctPerformers)
	assert.Equal(t, firstAt, *stats.First)
	assert.Equal(t, lastAt, *stats.Last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLDeletionAuditRepository_List(t *testing.T) {
	repo, mock := newMySQLMockRepo(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	audit := newTestAudit(nil, from.Add(time.Hour), nil)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM deletion_audits WHERE performed_at >= ? AND performed_at <= ? ORDER BY performed_at DESC, id DESC LIMIT ? OFFSET ?",
	)).
		WithArgs(from, to, 20, 0).
		WillReturnRows(sqlmock.NewRows(mysqlAuditColumnNames).AddRow(mysqlAuditRow(audit, nil)...))

	audits, err := repo.List(context.Background(), 0, 20, &from, &to)

	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, audit.ID, audits[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	where, args := mysqlRange(nil, nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = mysqlRange(&from, nil)
	assert.Equal(t, " WHERE performed_at >= ?", where)
	assert.Equal(t, []any{from}, args)
}

func TestPostgresRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	where, args := postgresRange(&from, &to, 1)
	assert.Equal(t, " WHERE performed_at >= $1 AND performed_at <= $2", where)
	assert.Equal(t, []any{from, to}, args)

	where, _ = postgresRange(nil, &to, 1)
	assert.Equal(t, " WHERE performed_at <= $1", where)
}
