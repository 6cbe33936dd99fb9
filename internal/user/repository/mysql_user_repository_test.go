package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/treatment-register/internal/user/domain"
)

func newMySQLMock(t *testing.T) (*MySQLUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLUserRepository(db), mock
}

func userRow(t *testing.T, user *domain.User) *sqlmock.Rows {
	t.Helper()
	id, err := user.ID.MarshalBinary()
	require.NoError(t, err)
	roles, err := marshalRoles(user.Roles)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"id", "email", "email_hash", "password", "roles", "created_at", "updated_at"}).
		AddRow(id, user.Email, user.EmailHash, user.Password, roles, user.CreatedAt, user.UpdatedAt)
}

func TestMySQLUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		user := newTestUser("jane@example.com", domain.RoleAdmin)
		id, _ := user.ID.MarshalBinary()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(id, user.Email, user.EmailHash, user.Password, []byte(`["ROLE_ADMIN"]`),
				user.CreatedAt, user.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.Create(ctx, newTestUser("jane@example.com"))
		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})
}

func TestMySQLUserRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		user := newTestUser("new@example.com", domain.RoleUser)
		id, _ := user.ID.MarshalBinary()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET email = ?, email_hash = ?, password = ?, roles = ?")).
			WithArgs(user.Email, user.EmailHash, user.Password, []byte(`["ROLE_USER"]`), user.UpdatedAt, id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnchangedRowExists", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		user := newTestUser("same@example.com")
		id, _ := user.ID.MarshalBinary()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, repo.Update(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		assert.ErrorIs(t, repo.Update(ctx, newTestUser("ghost@example.com")), domain.ErrUserNotFound)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		assert.ErrorIs(t, repo.Update(ctx, newTestUser("taken@example.com")), domain.ErrUserAlreadyExists)
	})
}

func TestMySQLUserRepository_Get(t *testing.T) {
	ctx := context.Background()
	user := newTestUser("jane@example.com", domain.RoleUser, domain.RoleDPO)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		id, _ := user.ID.MarshalBinary()

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
			WithArgs(id).
			WillReturnRows(userRow(t, user))

		found, err := repo.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.True(t, found.IsDPO())
	})

	t.Run("ForUpdate", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ? FOR UPDATE")).WillReturnRows(userRow(t, user))

		_, err := repo.GetForUpdate(ctx, user.ID)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE email_hash = ?")).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmailHash(ctx, user.EmailHash)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestMySQLUserRepository_CountByRole(t *testing.T) {
	repo, mock := newMySQLMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("JSON_CONTAINS(roles, JSON_QUOTE(?))")).
		WithArgs("ROLE_ADMIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByRole(context.Background(), domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMySQLUserRepository_ListIDsByRole(t *testing.T) {
	repo, mock := newMySQLMock(t)
	id := uuid.Must(uuid.NewV7())
	raw, _ := id.MarshalBinary()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE JSON_CONTAINS")).
		WithArgs("ROLE_DPO").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(raw))

	ids, err := repo.ListIDsByRole(context.Background(), domain.RoleDPO)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
}

func TestMySQLUserRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("List", func(t *testing.T) {
		repo, mock := newMySQLMock(t)
		user := newTestUser("jane@example.com")

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
			WithArgs(10, 0).
			WillReturnRows(userRow(t, user))

		users, err := repo.List(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Empty(t, users[0].Roles)
	})

	t.Run("DeleteNotFound", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(ctx, uuid.Must(uuid.NewV7()))
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		repo, mock := newMySQLMock(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, uuid.Must(uuid.NewV7())))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(sql.ErrConnDone))
}
