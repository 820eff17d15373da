package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

func TestRecordReviewWithTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	created := time.Now().UTC()
	mock.ExpectBegin()
	expectProposalLock(mock, "p1", models.ProposalStatusReview)
	mock.ExpectQuery("ON CONFLICT \\(proposal_id, reviewer_id\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rv-existing", created))
	mock.ExpectExec("UPDATE proposals SET status = \\$3, updated_at = \\$4, reviewed_at = \\$4 WHERE id = \\$1 AND status = \\$2").
		WithArgs("p1", models.ProposalStatusReview, models.ProposalStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review := &models.Review{ProposalID: "p1", ReviewerID: "rev", Rekomendasi: models.RecommendationAccept}
	err := repo.Record(context.Background(), review, models.ProposalStatusReview, &models.ProposalTransition{
		ProposalID: "p1", From: models.ProposalStatusReview, To: models.ProposalStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, "rv-existing", review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordReviewLostRaceRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	expectProposalLock(mock, "p1", models.ProposalStatusReview)
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rv1", time.Now()))
	mock.ExpectExec("UPDATE proposals").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), &models.Review{ProposalID: "p1", ReviewerID: "rev", Rekomendasi: models.RecommendationReject},
		models.ProposalStatusReview, &models.ProposalTransition{ProposalID: "p1", From: models.ProposalStatusReview, To: models.ProposalStatusRejected})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordReviewWithoutTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	expectProposalLock(mock, "p1", models.ProposalStatusSubmitted)
	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("rv1", time.Now()))
	mock.ExpectCommit()

	review := &models.Review{ProposalID: "p1", ReviewerID: "rev", Rekomendasi: models.RecommendationRevision}
	require.NoError(t, repo.Record(context.Background(), review, models.ProposalStatusSubmitted, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordReviewAfterProposalMovedOn(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	expectProposalLock(mock, "p1", models.ProposalStatusApproved)
	mock.ExpectRollback()

	review := &models.Review{ProposalID: "p1", ReviewerID: "rev", Rekomendasi: models.RecommendationAccept}
	err := repo.Record(context.Background(), review, models.ProposalStatusSubmitted, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectProposalLock(mock sqlmock.Sqlmock, proposalID string, status models.ProposalStatus) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM proposals WHERE id = $1 FOR UPDATE")).
		WithArgs(proposalID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(status)))
}
