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

// MySQLUserRepository handles user persistence for MySQL. UUIDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

// Create inserts a new user. Returns ErrUserAlreadyExists when the email hash is taken.
func (r *MySQLUserRepository) Create(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	roles, err := marshalRoles(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `INSERT INTO users (id, email, email_hash, password, roles, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, user.Email, user.EmailHash, user.Password,
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
func (r *MySQLUserRepository) Update(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	id, err := user.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}
	roles, err := marshalRoles(user.Roles)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user roles")
	}

	query := `UPDATE users SET email = ?, email_hash = ?, password = ?, roles = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, user.Email, user.EmailHash, user.Password, roles,
		user.UpdatedAt, id)
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
	if affected > 0 {
		return nil
	}

	// MySQL reports unchanged rows as unaffected.
	var exists bool
	if err := querier.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).
		Scan(&exists); err != nil {
		return apperrors.Wrap(err, "failed to check user")
	}
	if !exists {
		return domain.ErrUserNotFound
	}
	return nil
}

// Get retrieves a user by ID
func (r *MySQLUserRepository) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getByID(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetForUpdate retrieves a user by ID and locks the row until the transaction in ctx ends.
func (r *MySQLUserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getByID(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? FOR UPDATE`, id)
}

// GetByEmailHash retrieves a user by the hash of its normalized email.
func (r *MySQLUserRepository) GetByEmailHash(ctx context.Context, emailHash string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email_hash = ?`, emailHash)
}

// List returns users newest first.
func (r *MySQLUserRepository) List(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users ` + defaultUserListOrder + ` LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users")
	}
	defer rows.Close() //nolint:errcheck

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanMySQLUser(rows)
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
func (r *MySQLUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	var count int64
	query := `SELECT COUNT(*) FROM users WHERE JSON_CONTAINS(roles, JSON_QUOTE(?))`
	if err := querier.QueryRowContext(ctx, query, string(role)).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count users by role")
	}
	return count, nil
}

// ListIDsByRole returns the ids of users holding role.
func (r *MySQLUserRepository) ListIDsByRole(ctx context.Context, role domain.Role) ([]uuid.UUID, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id FROM users WHERE JSON_CONTAINS(roles, JSON_QUOTE(?)) ORDER BY id`
	rows, err := querier.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list users by role")
	}
	defer rows.Close() //nolint:errcheck

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan user id")
		}
		var id uuid.UUID
		if err := id.UnmarshalBinary(raw); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal user id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate user ids")
	}
	return ids, nil
}

// Delete hard deletes a user. Returns ErrUserNotFound when no row matched.
func (r *MySQLUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, idBytes)
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

func (r *MySQLUserRepository) getByID(ctx context.Context, query string, id uuid.UUID) (*domain.User, error) {
	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	return r.getOne(ctx, query, idBytes)
}

func (r *MySQLUserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	querier := database.GetTx(ctx, r.db)

	user, err := scanMySQLUser(querier.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanMySQLUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var id, roles []byte

	err := row.Scan(&id, &user.Email, &user.EmailHash, &user.Password, &roles,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, "failed to scan user")
	}

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}
	if user.Roles, err = unmarshalRoles(roles); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user roles")
	}
	return &user, nil
}
