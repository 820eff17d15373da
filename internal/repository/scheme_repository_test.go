package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSchemeDeleteInUse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchemeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM proposals WHERE skema_id = $1)")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, repo.Delete(context.Background(), "s1"), ErrInUse)
	assert.NoError(t, mock.ExpectationsWereMet())
}
