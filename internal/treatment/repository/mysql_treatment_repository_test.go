package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/treatment-register/internal/treatment/domain"
)

var treatmentColumnNames = []string{
	"id", "name", "department", "reference_number", "controller_name", "postal_address", "phone",
	"gdpr_referent", "purpose", "operational_referent", "sub_processor", "software_administrator",
	"legal_basis", "hosting", "retention_period", "status", "changes_comment", "created_by",
	"created_by_anonymized", "validated_at", "archived_at", "created_at", "updated_at",
}

func newMySQLMock(t *testing.T) (*MySQLTreatmentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLTreatmentRepository(db), mock
}

func bin(id uuid.UUID) []byte {
	raw, _ := id.MarshalBinary()
	return raw
}

func mysqlRow(tr *domain.Treatment) []driver.Value {
	var createdBy any
	if tr.CreatedBy != nil {
		createdBy = bin(*tr.CreatedBy)
	}
	var anonymized any
	if tr.CreatedByAnonymized != nil {
		anonymized = *tr.CreatedByAnonymized
	}
	return []driver.Value{
		bin(tr.ID), tr.Name, tr.Department, tr.ReferenceNumber, tr.ControllerName, tr.PostalAddress, tr.Phone,
		tr.GDPRReferent, tr.Purpose, tr.OperationalReferent, nil, tr.SoftwareAdministrator,
		tr.LegalBasis, tr.Hosting, tr.RetentionPeriod, string(tr.Status), nil, createdBy,
		anonymized, nil, nil, tr.CreatedAt, tr.UpdatedAt,
	}
}

func TestMySQLTreatmentRepository_Create(t *testing.T) {
	repo, mock := newMySQLMock(t)
	tr := newTestTreatment(nil, "Payroll")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO treatments")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), tr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTreatmentRepository_Get(t *testing.T) {
	ctx := context.Background()
	owner := uuid.Must(uuid.NewV7())

	t.Run("Found", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		tr := newTestTreatment(&owner, "Payroll")
		mock.ExpectQuery(regexp.QuoteMeta("FROM treatments WHERE id = ?")).
			WithArgs(bin(tr.ID)).
			WillReturnRows(sqlmock.NewRows(treatmentColumnNames).AddRow(mysqlRow(tr)...))

		found, err := repo.Get(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.ID, found.ID)
		assert.Equal(t, owner, *found.CreatedBy)
		assert.Equal(t, domain.StatusDraft, found.Status)
		assert.Nil(t, found.SubProcessor)
	})

	t.Run("AnonymizedOwner", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		tr := newTestTreatment(nil, "Payroll")
		label := domain.AnonymizedOwnerLabel("USER_1")
		tr.CreatedByAnonymized = &label
		mock.ExpectQuery(regexp.QuoteMeta("FROM treatments WHERE id = ?")).
			WithArgs(bin(tr.ID)).
			WillReturnRows(sqlmock.NewRows(treatmentColumnNames).AddRow(mysqlRow(tr)...))

		found, err := repo.Get(ctx, tr.ID)
		require.NoError(t, err)
		assert.Nil(t, found.CreatedBy)
		assert.Equal(t, label, found.OwnerDisplay())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		id := uuid.Must(uuid.NewV7())
		mock.ExpectQuery(regexp.QuoteMeta("FROM treatments WHERE id = ? FOR UPDATE")).
			WithArgs(bin(id)).
			WillReturnRows(sqlmock.NewRows(treatmentColumnNames))

		_, err := repo.GetForUpdate(ctx, id)
		assert.ErrorIs(t, err, domain.ErrTreatmentNotFound)
	})
}

func TestMySQLTreatmentRepository_List(t *testing.T) {
	repo, mock := newMySQLMock(t)
	owner := uuid.Must(uuid.NewV7())
	status := domain.StatusInReview
	tr := newTestTreatment(&owner, "Payroll")
	tr.Status = status

	mock.ExpectQuery(regexp.QuoteMeta("(? IS NULL OR created_by = ?) AND (? IS NULL OR status = ?)")).
		WithArgs(bin(owner), bin(owner), "in_review", "in_review", 10, 0).
		WillReturnRows(sqlmock.NewRows(treatmentColumnNames).AddRow(mysqlRow(tr)...))

	list, err := repo.List(context.Background(), domain.ListFilter{OwnerID: &owner, Status: &status}, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, tr.ID, list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTreatmentRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("UnchangedRowExists", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		tr := newTestTreatment(nil, "Payroll")
		mock.ExpectExec(regexp.QuoteMeta("UPDATE treatments SET")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(bin(tr.ID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.NoError(t, repo.Update(ctx, tr))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		tr := newTestTreatment(nil, "Payroll")
		mock.ExpectExec(regexp.QuoteMeta("UPDATE treatments SET")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(bin(tr.ID)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, repo.Update(ctx, tr), domain.ErrTreatmentNotFound)
	})
}

func TestMySQLTreatmentRepository_AnonymizeOwner(t *testing.T) {
	repo, mock := newMySQLMock(t)
	owner := uuid.Must(uuid.NewV7())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE treatments SET created_by = NULL, created_by_anonymized = ?")).
		WithArgs("Deleted user #USER_9", bin(owner)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.AnonymizeOwner(context.Background(), owner, "Deleted user #USER_9")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLTreatmentRepository_CountAndDelete(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())

	repo, mock := newMySQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM treatments WHERE created_by = ?")).
		WithArgs(bin(id)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM treatments WHERE id = ?")).
		WithArgs(bin(id)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	count, err := repo.CountByOwner(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.ErrorIs(t, repo.Delete(ctx, id), domain.ErrTreatmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
