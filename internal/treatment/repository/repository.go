// Package repository provides data persistence implementations for treatments.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/treatment/domain"
)

const treatmentColumns = `id, name, department, reference_number, controller_name, postal_address, phone,
	gdpr_referent, purpose, operational_referent, sub_processor, software_administrator, legal_basis,
	hosting, retention_period, status, changes_comment, created_by, created_by_anonymized,
	validated_at, archived_at, created_at, updated_at`

// Repository is the persistence contract shared by the SQL repositories and the
// encrypting decorator.
type Repository interface {
	Create(ctx context.Context, treatment *domain.Treatment) error
	Update(ctx context.Context, treatment *domain.Treatment) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Treatment, error)

	// GetForUpdate loads the treatment and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Treatment, error)

	// List returns treatments newest first.
	List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.Treatment, error)

	Delete(ctx context.Context, id uuid.UUID) error
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// AnonymizeOwner clears created_by on every treatment of ownerID and stores
	// placeholder in created_by_anonymized.
	AnonymizeOwner(ctx context.Context, ownerID uuid.UUID, placeholder string) (int64, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullStatus(status *domain.Status) sql.NullString {
	if status == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*status), Valid: true}
}

func affectedRows(result sql.Result) (int64, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return affected, nil
}
