package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/crypto/fieldenc"
	"github.com/allisson/treatment-register/internal/treatment/domain"
)

// EntityType is the name under which treatment fields are encrypted.
const EntityType = "treatment"

// SensitiveFields lists the treatment fields encrypted at rest.
func SensitiveFields() []fieldenc.Field[domain.Treatment] {
	return []fieldenc.Field[domain.Treatment]{
		fieldenc.String("controller_name", func(t *domain.Treatment) *string { return &t.ControllerName }),
		fieldenc.String("postal_address", func(t *domain.Treatment) *string { return &t.PostalAddress }),
		fieldenc.String("phone", func(t *domain.Treatment) *string { return &t.Phone }),
		fieldenc.String("gdpr_referent", func(t *domain.Treatment) *string { return &t.GDPRReferent }),
		fieldenc.String("purpose", func(t *domain.Treatment) *string { return &t.Purpose }),
		fieldenc.String("operational_referent", func(t *domain.Treatment) *string { return &t.OperationalReferent }),
		fieldenc.NullableString("sub_processor", func(t *domain.Treatment) **string { return &t.SubProcessor }),
		fieldenc.String(
			"software_administrator",
			func(t *domain.Treatment) *string { return &t.SoftwareAdministrator },
		),
	}
}

// EncryptedTreatmentRepository encrypts sensitive treatment fields before they are
// written and decrypts them after every read.
type EncryptedTreatmentRepository struct {
	next        Repository
	interceptor *fieldenc.Interceptor[domain.Treatment]
}

// NewEncryptedTreatmentRepository wraps next with field encryption.
func NewEncryptedTreatmentRepository(
	next Repository,
	interceptor *fieldenc.Interceptor[domain.Treatment],
) *EncryptedTreatmentRepository {
	return &EncryptedTreatmentRepository{next: next, interceptor: interceptor}
}

// Create encrypts a copy of t and stores it. The caller's value keeps its plaintext.
func (r *EncryptedTreatmentRepository) Create(ctx context.Context, t *domain.Treatment) error {
	stored := *t
	if err := r.interceptor.BeforeInsert(&stored); err != nil {
		return err
	}
	return r.next.Create(ctx, &stored)
}

// Update encrypts a copy of t and stores it.
func (r *EncryptedTreatmentRepository) Update(ctx context.Context, t *domain.Treatment) error {
	stored := *t
	if err := r.interceptor.BeforeUpdate(&stored); err != nil {
		return err
	}
	return r.next.Update(ctx, &stored)
}

func (r *EncryptedTreatmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	t, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoad(ctx, t)
	return t, nil
}

func (r *EncryptedTreatmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Treatment, error) {
	t, err := r.next.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoad(ctx, t)
	return t, nil
}

func (r *EncryptedTreatmentRepository) List(
	ctx context.Context,
	filter domain.ListFilter,
	offset, limit int,
) ([]*domain.Treatment, error) {
	treatments, err := r.next.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoadAll(ctx, treatments)
	return treatments, nil
}

func (r *EncryptedTreatmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.next.Delete(ctx, id)
}

func (r *EncryptedTreatmentRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return r.next.CountByOwner(ctx, ownerID)
}

func (r *EncryptedTreatmentRepository) AnonymizeOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	placeholder string,
) (int64, error) {
	return r.next.AnonymizeOwner(ctx, ownerID, placeholder)
}
