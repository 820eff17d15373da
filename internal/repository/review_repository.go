package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/database"
)

const reviewColumns = `r.id, r.proposal_id, r.reviewer_id, u.full_name AS reviewer_name, r.skor_total, r.rekomendasi, r.catatan, r.tanggal_review, r.created_at, r.updated_at`

// ReviewRepository persists the single active review per (proposal, reviewer).
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const upsertReview = `INSERT INTO reviews (id, proposal_id, reviewer_id, skor_total, rekomendasi, catatan, tanggal_review, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $7)
ON CONFLICT (proposal_id, reviewer_id) DO UPDATE SET
	skor_total = EXCLUDED.skor_total,
	rekomendasi = EXCLUDED.rekomendasi,
	catatan = EXCLUDED.catatan,
	tanggal_review = EXCLUDED.tanggal_review,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at`

// Record upserts review while the proposal is still in expected and, when
// transition is non-nil, applies it in the same transaction. A proposal that
// moved on, or a lost transition race, rolls the review back and returns sql.ErrNoRows.
func (r *ReviewRepository) Record(ctx context.Context, review *models.Review, expected models.ProposalStatus, transition *models.ProposalTransition) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	review.TanggalReview = now
	review.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current models.ProposalStatus
		if err := tx.GetContext(ctx, &current, `SELECT status FROM proposals WHERE id = $1 FOR UPDATE`, review.ProposalID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock proposal: %w", err)
		}
		if current != expected {
			return sql.ErrNoRows
		}
		row := tx.QueryRowxContext(ctx, upsertReview,
			review.ID, review.ProposalID, review.ReviewerID, review.SkorTotal, review.Rekomendasi, review.Catatan, now)
		if err := row.Scan(&review.ID, &review.CreatedAt); err != nil {
			return fmt.Errorf("upsert review: %w", err)
		}
		if transition == nil {
			return nil
		}
		if transition.At.IsZero() {
			transition.At = now
		}
		query, args := transitionQuery(*transition)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("transition proposal: %w", err)
		}
		return expectOneRow(res)
	})
}

// FindByProposalAndReviewer returns the reviewer's review of a proposal.
func (r *ReviewRepository) FindByProposalAndReviewer(ctx context.Context, proposalID, reviewerID string) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.reviewer_id WHERE r.proposal_id = $1 AND r.reviewer_id = $2`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, proposalID, reviewerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &review, nil
}

// ListByProposal returns every review of a proposal, newest first.
func (r *ReviewRepository) ListByProposal(ctx context.Context, proposalID string) ([]models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.reviewer_id WHERE r.proposal_id = $1 ORDER BY r.tanggal_review DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, proposalID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}
