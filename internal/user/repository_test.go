// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
	"github.com/carterperez-dev/templates/accounts-api/internal/resource"
)

const testUserID = "7f9c2b1e-4a0d-4c7e-9f3a-1b2c3d4e5f60"

var columnNames = []string{
	"id", "name", "email", "photo", "role", "password_hash",
	"password_changed_at", "password_reset_token", "password_reset_expires_at",
	"active", "created_at", "updated_at",
}

func newRepoWithMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func userRow(id, email string) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(columnNames).AddRow(
		id, "Jonas", email, "default.jpg", "user", "$argon2id$hash",
		nil, nil, nil, true, now, now,
	)
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^\s*INSERT INTO users \(id, name, email, photo, role, password_hash\).*RETURNING active, created_at, updated_at`).
		WithArgs(testUserID, "Jonas", "jonas@example.com", "default.jpg", "user", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"active", "created_at", "updated_at"}).
			AddRow(true, now, now))

	u := &User{
		ID:           testUserID,
		Name:         "Jonas",
		Email:        "jonas@example.com",
		Photo:        DefaultPhoto,
		Role:         core.RoleUser,
		PasswordHash: "hash",
	}
	require.NoError(t, repo.Create(context.Background(), u))

	assert.True(t, u.Active)
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateDuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{
			Code:   "23505",
			Detail: "Key (email)=(jonas@example.com) already exists.",
		})

	err := repo.Create(context.Background(), &User{ID: testUserID, Role: core.RoleUser})
	require.Error(t, err)

	appErr, ok := core.Translate(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Contains(t, appErr.Message, "jonas@example.com")
}

func TestRepositoryGetByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM users\s+WHERE id = \$1 AND active = TRUE`).
		WithArgs(testUserID).
		WillReturnRows(userRow(testUserID, "jonas@example.com"))

	u, err := repo.GetByID(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, "jonas@example.com", u.Email)
	assert.Equal(t, core.RoleUser, u.Role)
	assert.Nil(t, u.PasswordChangedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users`).
		WithArgs(testUserID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), testUserID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryGetByIDRejectsMalformedID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	require.Error(t, err)

	appErr, ok := core.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid id: not-a-uuid", appErr.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)WHERE password_reset_token = \$1\s+AND password_reset_expires_at > \$2`).
		WithArgs("digest", now).
		WillReturnRows(userRow(testUserID, "jonas@example.com"))

	u, err := repo.GetByResetToken(context.Background(), "digest", now)
	require.NoError(t, err)
	assert.Equal(t, testUserID, u.ID)
}

func TestRepositoryUpdatePasswordResetTouchesOnlyResetFields(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	digest := "digest"
	expires := time.Now().Add(ResetTokenTTL)

	mock.ExpectExec(`(?s)UPDATE users\s+SET password_reset_token = \$2,\s+password_reset_expires_at = \$3\s+WHERE id = \$1`).
		WithArgs(testUserID, &digest, &expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePasswordReset(context.Background(), &User{
		ID:                     testUserID,
		PasswordResetToken:     &digest,
		PasswordResetExpiresAt: &expires,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryDeactivateMissingUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`SET active = FALSE`).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), testUserID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryListDefaults(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)FROM users\s+WHERE active = TRUE\s+ORDER BY created_at DESC, id\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(resource.DefaultLimit, 0).
		WillReturnRows(userRow(testUserID, "jonas@example.com"))

	users, err := repo.List(context.Background(), resource.Query{
		Page:  resource.DefaultPage,
		Limit: resource.DefaultLimit,
	})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListFiltersAndSort(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)WHERE active = TRUE AND role = \$1 AND created_at >= \$2\s+ORDER BY name ASC, created_at DESC, id\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("guide", since, 10, 20).
		WillReturnRows(sqlmock.NewRows(columnNames))

	_, err := repo.List(context.Background(), resource.Query{
		Filters: []resource.Filter{
			{Field: "role", Op: resource.OpEq, Value: "guide"},
			{Field: "createdAt", Op: resource.OpGte, Value: "2026-01-01"},
		},
		Sort: []resource.SortField{
			{Field: "name"},
			{Field: "createdAt", Desc: true},
		},
		Page:  3,
		Limit: 10,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListExplicitActiveFilterOverridesDefault(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)WHERE active = \$1\s+ORDER BY`).
		WithArgs(false, resource.DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows(columnNames))

	_, err := repo.List(context.Background(), resource.Query{
		Filters: []resource.Filter{{Field: "active", Op: resource.OpEq, Value: "false"}},
		Page:    1,
		Limit:   resource.DefaultLimit,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListRejectsUnknownFields(t *testing.T) {
	repo, _ := newRepoWithMock(t)

	tests := []resource.Query{
		{Filters: []resource.Filter{{Field: "password_hash", Op: resource.OpEq, Value: "x"}}},
		{Sort: []resource.SortField{{Field: "passwordResetToken"}}},
		{Filters: []resource.Filter{{Field: "role", Op: resource.OpEq, Value: "wizard"}}},
		{Filters: []resource.Filter{{Field: "active", Op: resource.OpEq, Value: "maybe"}}},
	}

	for _, q := range tests {
		q.Page, q.Limit = 1, 10
		_, err := repo.List(context.Background(), q)
		require.Error(t, err)

		appErr, ok := core.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 400, appErr.StatusCode)
	}
}

func TestRepositoryStats(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`GROUP BY role`).
		WillReturnRows(sqlmock.NewRows([]string{"role", "total", "active"}).
			AddRow("user", 5, 4).
			AddRow("admin", 1, 1))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 5, stats.Active)
	assert.Equal(t, 4, stats.ByRole[core.RoleUser])
}

func TestRepositoryWrapsDriverErrors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("db down"))

	_, err := repo.GetByEmail(context.Background(), "x@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get user by email: db down")
}
