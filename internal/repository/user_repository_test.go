package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userColumnNames = []string{"id", "email", "password_hash", "full_name", "nidn", "nim", "role", "status", "department_id", "program_id", "last_login", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userColumnNames).
		AddRow("1", "dosen@polimdo.ac.id", "hash", "Dosen", "0011223344", nil, string(models.RoleDosen), string(models.UserStatusActive), nil, nil, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("dosen@polimdo.ac.id").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " dosen@polimdo.ac.id ")
	require.NoError(t, err)
	assert.Equal(t, "dosen@polimdo.ac.id", user.Email)
	assert.True(t, user.Active())
	require.NotNil(t, user.NIDN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDsUsesArray(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	const a, b = "0b6f3c1e-4d2a-4f8e-9c7b-1a2b3c4d5e6f", "7d1e2f3a-5b6c-4d7e-8f90-a1b2c3d4e5f6"
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ANY($1)")).
		WithArgs(pq.Array([]string{a, b})).
		WillReturnRows(sqlmock.NewRows(userColumnNames).
			AddRow(a, "a@x.id", "h", "A", nil, "2201", string(models.RoleMahasiswa), string(models.UserStatusActive), nil, nil, nil, now, now))

	users, err := repo.FindByIDs(context.Background(), []string{a, "abc", b})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	empty, err = repo.FindByIDs(context.Background(), []string{"not-a-uuid"})
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateRefreshToken(context.Background(), &models.RefreshToken{ID: "1", UserID: "u1", Token: "token", ExpiresAt: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeRefreshTokenTwice(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeRefreshToken(context.Background(), "rt-1", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	role := models.RoleReviewer
	listRows := sqlmock.NewRows(userColumnNames).
		AddRow("1", "r@x.id", "hash", "R", nil, nil, string(models.RoleReviewer), string(models.UserStatusActive), nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE 1=1 AND role = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(role).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND role = $1")).WithArgs(role).WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Email: "x@y.id", Role: models.RoleDosen})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
