package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/query"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "created_at", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)")).
		WithArgs("John", "john@example.com", "hash", "user").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(7, "John", "john@example.com", "hash", "user", now, now))

	u := &domain.User{Name: "John", Email: "john@example.com", PasswordHash: "hash", Role: domain.UserRoleUser}
	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'john@example.com' for key 'uk_users_email'"})

	err := r.Create(context.Background(), &domain.User{Name: "John", Email: "john@example.com", Role: domain.UserRoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("john@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	u, err := r.GetByEmail(context.Background(), "  John@Example.COM ")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Update_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = ?, email = ?, password_hash = ?, role = ? WHERE id = ?")).
		WithArgs("Amy", "amy@example.com", "hash", "customer", int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.Update(context.Background(), &domain.User{ID: 99, Name: "Amy", Email: "amy@example.com", PasswordHash: "hash", Role: domain.UserRoleCustomer})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.Delete(context.Background(), 3))
	assert.ErrorIs(t, r.Delete(context.Background(), 4), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewUserRepository(db)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	l := query.Users.Build(query.PageRequest{
		Page:    2,
		Limit:   10,
		Search:  "Jo",
		Filters: map[string]string{"role": "user"},
	})
	where := "WHERE role = ? AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)"

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users " + where)).
		WithArgs("user", "%jo%", "%jo%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users " + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")).
		WithArgs("user", "%jo%", "%jo%", 10, 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(2, "Joanna", "joanna@example.com", "h", "user", now, now).
			AddRow(1, "John", "john@example.com", "h", "user", now, now))

	users, total, err := r.List(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, users, 2)
	assert.Equal(t, "Joanna", users[0].Name)
	assert.Equal(t, domain.UserRoleUser, users[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
