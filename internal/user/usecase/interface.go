// Package usecase implements account management for register users.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/user/domain"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// ErasedIdentityChecker reports whether a natural identifier belongs to an erased user.
type ErasedIdentityChecker interface {
	WasIdentityErased(ctx context.Context, naturalID string) (bool, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(plain, hashed string) bool
}

// RegisterInput contains the data of a new account.
type RegisterInput struct {
	Email    string
	Password string
	Roles    []domain.Role
}

// UpdateInput contains the changes to an account. Nil fields are left unchanged and an
// empty Roles slice resets the account to ROLE_USER.
type UpdateInput struct {
	Email    *string
	Password *string
	Roles    []domain.Role
}

// UseCase defines the user business operations.
type UseCase interface {
	// Register creates an account. The email must not belong to an existing or erased user.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Update changes the email, password or roles of an account. A new email must not
	// belong to another or an erased user, and the last administrator keeps ROLE_ADMIN.
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*domain.User, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	List(ctx context.Context, offset, limit int) ([]*domain.User, error)

	// Authenticate returns the user matching email and password, or ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}
