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

// MySQLTreatmentRepository handles treatment persistence for MySQL. UUIDs are stored as BINARY(16).
type MySQLTreatmentRepository struct {
	db *sql.DB
}

// NewMySQLTreatmentRepository creates a new MySQLTreatmentRepository
func NewMySQLTreatmentRepository(db *sql.DB) *MySQLTreatmentRepository {
	return &MySQLTreatmentRepository{db: db}
}

func binaryID(id uuid.UUID) ([]byte, error) {
	raw, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal id")
	}
	return raw, nil
}

// nullableBinaryID returns nil for a nil id so the driver writes NULL.
func nullableBinaryID(id *uuid.UUID) (any, error) {
	if id == nil {
		return nil, nil
	}
	return binaryID(*id)
}

// Create inserts a new treatment.
func (r *MySQLTreatmentRepository) Create(ctx context.Context, t *domain.Treatment) error {
	querier := database.GetTx(ctx, r.db)

	id, err := binaryID(t.ID)
	if err != nil {
		return err
	}
	createdBy, err := nullableBinaryID(t.CreatedBy)
	if err != nil {
		return err
	}

	query := `INSERT INTO treatments (` + treatmentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query,
		id, t.Name, t.Department, t.ReferenceNumber, t.ControllerName, t.PostalAddress, t.Phone,
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
func (r *MySQLTreatmentRepository) Update(ctx context.Context, t *domain.Treatment) error {
	querier := database.GetTx(ctx, r.db)

	id, err := binaryID(t.ID)
	if err != nil {
		return err
	}

	query := `UPDATE treatments SET name = ?, department = ?, reference_number = ?, controller_name = ?,
			  postal_address = ?, phone = ?, gdpr_referent = ?, purpose = ?, operational_referent = ?,
			  sub_processor = ?, software_administrator = ?, legal_basis = ?, hosting = ?,
			  retention_period = ?, status = ?, changes_comment = ?, validated_at = ?,
			  archived_at = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query,
		t.Name, t.Department, t.ReferenceNumber, t.ControllerName, t.PostalAddress, t.Phone,
		t.GDPRReferent, t.Purpose, t.OperationalReferent, t.SubProcessor, t.SoftwareAdministrator,
		t.LegalBasis, t.Hosting, t.RetentionPeriod, t.Status, t.ChangesComment, t.ValidatedAt,
		t.ArchivedAt, t.UpdatedAt, id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update treatment")
	}
	affected, err := affectedRows(result)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// MySQL reports unchanged rows as unaffected.
	var exists bool
	if err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM treatments WHERE id = ?)`, id).
		Scan(&exists); err != nil {
		return apperrors.Wrap(err, "failed to check treatment")
	}
	if !exists {
		return domain.ErrTreatmentNotFound
	}
	return nil
}

// Get retrieves a treatment by ID
func (r *MySQLTreatmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	return r.getOne(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = ?`, id)
}

// GetForUpdate retrieves a treatment by ID and locks the row until the transaction in ctx ends.
func (r *MySQLTreatmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	return r.getOne(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = ? FOR UPDATE`, id)
}

// List returns treatments matching filter, newest first.
func (r *MySQLTreatmentRepository) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.Treatment, error) {
	querier := database.GetTx(ctx, r.db)

	owner, err := nullableBinaryID(filter.OwnerID)
	if err != nil {
		return nil, err
	}
	status := nullStatus(filter.Status)

	query := `SELECT ` + treatmentColumns + ` FROM treatments
			  WHERE (? IS NULL OR created_by = ?) AND (? IS NULL OR status = ?)
			  ORDER BY created_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, owner, owner, status, status, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list treatments")
	}
	defer rows.Close() //nolint:errcheck

	treatments := make([]*domain.Treatment, 0)
	for rows.Next() {
		t, err := scanMySQLTreatment(rows)
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
func (r *MySQLTreatmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	raw, err := binaryID(id)
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM treatments WHERE id = ?`, raw)
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
func (r *MySQLTreatmentRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	raw, err := binaryID(ownerID)
	if err != nil {
		return 0, err
	}

	var count int64
	query := `SELECT COUNT(*) FROM treatments WHERE created_by = ?`
	if err := querier.QueryRowContext(ctx, query, raw).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count treatments by owner")
	}
	return count, nil
}

// AnonymizeOwner replaces the owner reference of every treatment of ownerID with placeholder.
func (r *MySQLTreatmentRepository) AnonymizeOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	placeholder string,
) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	raw, err := binaryID(ownerID)
	if err != nil {
		return 0, err
	}

	query := `UPDATE treatments SET created_by = NULL, created_by_anonymized = ? WHERE created_by = ?`
	result, err := querier.ExecContext(ctx, query, placeholder, raw)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to anonymize treatment owner")
	}
	return affectedRows(result)
}

func (r *MySQLTreatmentRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Treatment, error) {
	querier := database.GetTx(ctx, r.db)

	raw, err := binaryID(id)
	if err != nil {
		return nil, err
	}

	t, err := scanMySQLTreatment(querier.QueryRowContext(ctx, query, raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTreatmentNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanMySQLTreatment(row rowScanner) (*domain.Treatment, error) {
	var t domain.Treatment
	var id, createdBy []byte

	err := row.Scan(
		&id, &t.Name, &t.Department, &t.ReferenceNumber, &t.ControllerName, &t.PostalAddress, &t.Phone,
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

	if err := t.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal treatment id")
	}
	if createdBy != nil {
		var owner uuid.UUID
		if err := owner.UnmarshalBinary(createdBy); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal treatment owner")
		}
		t.CreatedBy = &owner
	}
	return &t, nil
}
