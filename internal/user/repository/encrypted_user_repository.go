package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/crypto/fieldenc"
	"github.com/allisson/treatment-register/internal/user/domain"
)

// EntityType is the name under which user fields are encrypted.
const EntityType = "user"

// Repository is the persistence contract shared by the SQL repositories and the
// encrypting decorator.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SensitiveFields lists the user fields encrypted at rest.
func SensitiveFields() []fieldenc.Field[domain.User] {
	return []fieldenc.Field[domain.User]{
		fieldenc.String("email", func(u *domain.User) *string { return &u.Email }),
	}
}

// EncryptedUserRepository encrypts sensitive user fields before they are written and
// decrypts them after every read.
type EncryptedUserRepository struct {
	next        Repository
	interceptor *fieldenc.Interceptor[domain.User]
}

// NewEncryptedUserRepository wraps next with field encryption.
func NewEncryptedUserRepository(
	next Repository,
	interceptor *fieldenc.Interceptor[domain.User],
) *EncryptedUserRepository {
	return &EncryptedUserRepository{next: next, interceptor: interceptor}
}

// Create encrypts a copy of user and stores it. The caller's value keeps its plaintext.
func (r *EncryptedUserRepository) Create(ctx context.Context, user *domain.User) error {
	stored := *user
	if err := r.interceptor.BeforeInsert(&stored); err != nil {
		return err
	}
	return r.next.Create(ctx, &stored)
}

// Update encrypts a copy of user and stores it.
func (r *EncryptedUserRepository) Update(ctx context.Context, user *domain.User) error {
	stored := *user
	if err := r.interceptor.BeforeUpdate(&stored); err != nil {
		return err
	}
	return r.next.Update(ctx, &stored)
}

func (r *EncryptedUserRepository) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoad(ctx, user)
	return user, nil
}

func (r *EncryptedUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := r.next.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoad(ctx, user)
	return user, nil
}

func (r *EncryptedUserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	user, err := r.next.GetByEmailHash(ctx, emailHash)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoad(ctx, user)
	return user, nil
}

func (r *EncryptedUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	users, err := r.next.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	r.interceptor.AfterLoadAll(ctx, users)
	return users, nil
}

func (r *EncryptedUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.next.CountByRole(ctx, role)
}

func (r *EncryptedUserRepository) ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	return r.next.ListIDsByRole(ctx, role)
}

func (r *EncryptedUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.next.Delete(ctx, id)
}
