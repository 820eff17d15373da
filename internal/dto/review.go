package dto

import "github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"

// RecordReviewRequest creates or replaces the caller's review of a proposal.
// ReviewerID is only honoured for ADMIN callers editing someone else's review.
type RecordReviewRequest struct {
	ReviewerID  string                `json:"reviewer_id" validate:"omitempty,uuid"`
	SkorTotal   *float64              `json:"skor_total"`
	Rekomendasi models.Recommendation `json:"rekomendasi" validate:"required"`
	Catatan     string                `json:"catatan"`
}

// RecordReviewResponse reports the stored review and any resulting transition.
type RecordReviewResponse struct {
	Review         models.Review         `json:"review"`
	ProposalStatus models.ProposalStatus `json:"proposal_status"`
	Transitioned   bool                  `json:"transitioned"`
}

// ReviewList is the reviews of one proposal with their aggregate.
type ReviewList struct {
	Reviews []models.Review      `json:"reviews"`
	Summary models.ReviewSummary `json:"summary"`
}
