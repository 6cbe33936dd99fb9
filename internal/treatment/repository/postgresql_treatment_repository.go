package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/treatment/domain"
)

// PostgreSQLTreatmentRepository handles treatment persistence for PostgreSQL
type PostgreSQLTreatmentRepository struct {
	db *sql.DB
}

// NewPostgreSQLTreatmentRepository creates a new PostgreSQLTreatmentRepository
func NewPostgreSQLTreatmentRepository(db *sql.DB) *PostgreSQLTreatmentRepository {
	return &PostgreSQLTreatmentRepository{db: db}
}

// Create inserts a new treatment.
func (r *PostgreSQLTreatmentRepository) Create(ctx context.Context, t *domain.Treatment) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO treatments (` + treatmentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
			  $20, $21, $22, $23)`

	var createdBy uuid.NullUUID
	if t.CreatedBy != nil {
		createdBy = uuid.NullUUID{UUID: *t.CreatedBy, Valid: true}
	}

	_, err := querier.ExecContext(ctx, query,
		t.ID, t.Name, t.Department, t.ReferenceNumber, t.ControllerName, t.PostalAddress, t.Phone,
		t.GDPRReferent, t.Purpose, t.OperationalReferent, t.SubProcessor, t.SoftwareAdministrator,
		t.LegalBasis, t.Hosting, t.RetentionPeriod, t.Status, t.ChangesComment, createdBy,
		t.CreatedByAnonymized, t.ValidatedAt, t.ArchivedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create treatment")
	}
	return nil
}

// Update stores the mutable columns of a treatment. Ownership columns are only
// changed by AnonymizeOwner.
func (r *PostgreSQLTreatmentRepository) Update(ctx context.Context, t *domain.Treatment) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE treatments SET name = $2, department = $3, reference_number = $4, controller_name = $5,
			  postal_address = $6, phone = $7, gdpr_referent = $8, purpose = $9, operational_referent = $10,
			  sub_processor = $11, software_administrator = $12, legal_basis = $13, hosting = $14,
			  retention_period = $15, status = $16, changes_comment = $17, validated_at = $18,
			  archived_at = $19, updated_at = $20
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query,
		t.ID, t.Name, t.Department, t.ReferenceNumber, t.ControllerName, t.PostalAddress, t.Phone,
		t.GDPRReferent, t.Purpose, t.OperationalReferent, t.SubProcessor, t.SoftwareAdministrator,
		t.LegalBasis, t.Hosting, t.RetentionPeriod, t.Status, t.ChangesComment, t.ValidatedAt,
		t.ArchivedAt, t.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update treatment")
	}
	affected, err := affectedRows(result)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTreatmentNotFound
	}
	return nil
}

// Get retrieves a treatment by ID
func (r *PostgreSQLTreatmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	return r.getOne(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = $1`, id)
}

// GetForUpdate retrieves a treatment by ID and locks the row until the transaction in ctx ends.
func (r *PostgreSQLTreatmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	return r.getOne(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = $1 FOR UPDATE`, id)
}

// List returns treatments matching filter, newest first.
func (r *PostgreSQLTreatmentRepository) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.Treatment, error) {
	querier := database.GetTx(ctx, r.db)

	var owner uuid.NullUUID
	if filter.OwnerID != nil {
		owner = uuid.NullUUID{UUID: *filter.OwnerID, Valid: true}
	}

	query := `SELECT ` + treatmentColumns + ` FROM treatments
			  WHERE ($1::uuid IS NULL OR created_by = $1) AND ($2::text IS NULL OR status = $2)
			  ORDER BY created_at DESC, id DESC
			  LIMIT $3 OFFSET $4`

	rows, err := querier.QueryContext(ctx, query, owner, nullStatus(filter.Status), limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list treatments")
	}
	defer rows.Close() //nolint:errcheck

	treatments := make([]*domain.Treatment, 0)
	for rows.Next() {
		t, err := scanPostgresTreatment(rows)
		if err != nil {
			return nil, err
		}
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate treatments")
	}
	return treatments, nil
}

// Delete hard deletes a treatment. Returns ErrTreatmentNotFound when no row matched.
func (r *PostgreSQLTreatmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete treatment")
	}
	affected, err := affectedRows(result)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTreatmentNotFound
	}
	return nil
}

// CountByOwner counts the treatments created by ownerID.
func (r *PostgreSQLTreatmentRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	query := `SELECT COUNT(*) FROM treatments WHERE created_by = $1`
	if err := querier.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count treatments by owner")
	}
	return count, nil
}

// AnonymizeOwner replaces the owner reference of every treatment of ownerID with placeholder.
func (r *PostgreSQLTreatmentRepository) AnonymizeOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	placeholder string,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE treatments SET created_by = NULL, created_by_anonymized = $2 WHERE created_by = $1`
	result, err := querier.ExecContext(ctx, query, ownerID, placeholder)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to anonymize treatment owner")
	}
	return affectedRows(result)
}

func (r *PostgreSQLTreatmentRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Treatment, error) {
	querier := database.GetTx(ctx, r.db)

	t, err := scanPostgresTreatment(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTreatmentNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanPostgresTreatment(row rowScanner) (*domain.Treatment, error) {
	var t domain.Treatment
	var createdBy uuid.NullUUID

	err := row.Scan(
		&t.ID, &t.Name, &t.Department, &t.ReferenceNumber, &t.ControllerName, &t.PostalAddress, &t.Phone,
		&t.GDPRReferent, &t.Purpose, &t.OperationalReferent, &t.SubProcessor, &t.SoftwareAdministrator,
		&t.LegalBasis, &t.Hosting, &t.RetentionPeriod, &t.Status, &t.ChangesComment, &createdBy,
		&t.CreatedByAnonymized, &t.ValidatedAt, &t.ArchivedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan treatment")
	}

	if createdBy.Valid {
		t.CreatedBy = &createdBy.UUID
	}
	return &t, nil
}
