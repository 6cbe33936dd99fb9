package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/treatment-register/internal/database"
	apperrors "github.com/allisson/treatment-register/internal/errors"
	"github.com/allisson/treatment-register/internal/user/domain"
)

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db}
}

// Create inserts a new user. Returns ErrUserAlreadyExists when the email hash is taken.
func (r *PostgreSQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := marshalRoles(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `INSERT INTO users (id, email, email_hash, password, roles, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = querier.ExecContext(ctx, query, user.ID, user.Email, user.EmailHash, user.Password,
		roles, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create user")
	}
	return nil
}

// Update stores the email, password and roles of a user. Returns ErrUserAlreadyExists
// when the new email hash is taken and ErrUserNotFound when no row matched.
func (r *PostgreSQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	roles, err := marshalRoles(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `UPDATE users SET email = $2, email_hash = $3, password = $4, roles = $5, updated_at = $6
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, user.ID, user.Email, user.EmailHash, user.Password,
		roles, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return apperrors.Wrap(err, "failed to update user")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Get retrieves a user by ID
func (r *PostgreSQLUserRepository) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetForUpdate retrieves a user by ID and locks the row until the transaction in ctx ends.
func (r *PostgreSQLUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

// GetByEmailHash retrieves a user by the hash of its normalized email.
func (r *PostgreSQLUserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_hash = $1`
	return r.getOne(ctx, query, emailHash)
}

// List returns users newest first.
func (r *PostgreSQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users ` + defaultUserListOrder + ` LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanPostgresUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate users")
	}
	return users, nil
}

// CountByRole counts users holding role.
func (r *PostgreSQLUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	filter, err := marshalRoles([]domain.Role{role})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal role filter")
	}

	var count int64
	query := `SELECT COUNT(*) FROM users WHERE roles @> $1::jsonb`
	if err := querier.QueryRowContext(ctx, query, string(filter)).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count users by role")
	}
	return count, nil
}

// ListIDsByRole returns the ids of users holding role.
func (r *PostgreSQLUserRepository) ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	filter, err := marshalRoles([]domain.Role{role})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role filter")
	}

	rows, err := querier.QueryContext(ctx, `SELECT id FROM users WHERE roles @> $1::jsonb ORDER BY id`, string(filter))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users by role")
	}
	defer rows.Close() //nolint:errcheck

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate user ids")
	}
	return ids, nil
}

// Delete hard deletes a user. Returns ErrUserNotFound when no row matched.
func (r *PostgreSQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete user")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *PostgreSQLUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	user, err := scanPostgresUser(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanPostgresUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var roles []byte

	err := row.Scan(&user.ID, &user.Email, &user.EmailHash, &user.Password, &roles,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan user")
	}

	if user.Roles, err = unmarshalRoles(roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}
	return &user, nil
}
