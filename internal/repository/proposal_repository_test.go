package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

func TestProposalCreateWritesChairAndMembers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO proposals").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO proposal_members (proposal_id, user_id, peran, created_at) VALUES ($1, $2, $3, $4)")).
		WithArgs(sqlmock.AnyArg(), "chair", models.MemberRoleChair, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("FROM UNNEST($2::uuid[])")).
		WithArgs(sqlmock.AnyArg(), pq.Array([]string{"m1", "m2"}), models.MemberRoleMember, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectCommit()

	p := &models.Proposal{Judul: "Sensor", KetuaID: "chair", SkemaID: "s1"}
	require.NoError(t, repo.Create(context.Background(), p, []string{"m1", "m2"}))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, models.ProposalStatusDraft, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalCreateRollsBackOnMemberFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO proposals").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO proposal_members").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("FROM UNNEST").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Proposal{KetuaID: "chair"}, []string{"m1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalTransitionIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	reviewer := "rev-1"
	at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE proposals SET status = $3, updated_at = $4, reviewer_id = $5 WHERE id = $1 AND status = $2")).
		WithArgs("p1", models.ProposalStatusSubmitted, models.ProposalStatusReview, at, reviewer).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Transition(context.Background(), models.ProposalTransition{
		ProposalID: "p1",
		From:       models.ProposalStatusSubmitted,
		To:         models.ProposalStatusReview,
		ReviewerID: &reviewer,
		At:         at,
	})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionQueryStampsTimestamps(t *testing.T) {
	query, args := transitionQuery(models.ProposalTransition{ProposalID: "p1", From: models.ProposalStatusDraft, To: models.ProposalStatusSubmitted})
	assert.Contains(t, query, "submitted_at = $4")
	assert.Len(t, args, 4)

	query, _ = transitionQuery(models.ProposalTransition{ProposalID: "p1", From: models.ProposalStatusReview, To: models.ProposalStatusRevision})
	assert.Contains(t, query, "reviewed_at = $4")
	assert.NotContains(t, query, "submitted_at")
}

func TestReplaceMembersStatusMismatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM proposals WHERE id = $1 FOR UPDATE")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(models.ProposalStatusSubmitted)))
	mock.ExpectRollback()

	err := repo.ReplaceMembers(context.Background(), "p1", models.ProposalStatusDraft, []string{"m1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceMembersSwapsRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(models.ProposalStatusRevision)))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM proposal_members WHERE proposal_id = $1 AND peran = $2")).
		WithArgs("p1", models.MemberRoleMember).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("FROM UNNEST").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE proposals SET updated_at = $2 WHERE id = $1")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceMembers(context.Background(), "p1", models.ProposalStatusRevision, []string{"m9"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalListScopesVisibility(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE ((p.ketua_id = $1 OR EXISTS (SELECT 1 FROM proposal_members m WHERE m.proposal_id = p.id AND m.user_id = $1)) OR p.status <> 'DRAFT') ORDER BY p.created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM proposals p WHERE")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.List(context.Background(), models.ProposalFilter{ParticipantID: "u1", IncludeNonDraft: true})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusCountsFillsMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).AddRow("DRAFT", 4).AddRow("APPROVED", 1))

	counts, err := repo.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.ProposalStatusDraft])
	assert.Equal(t, 0, counts[models.ProposalStatusReview])
	assert.Len(t, counts, len(models.ProposalStatuses))
}

func TestFindProposalMalformedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProposalRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM proposals p WHERE p.id = $1")).
		WithArgs("abc").
		WillReturnError(&pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`})

	_, err := repo.FindByID(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, IsMalformedID(err))
	assert.False(t, IsMalformedID(errors.New("connection refused")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
