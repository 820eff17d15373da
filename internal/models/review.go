package models

import "time"

// Recommendation is a reviewer's categorical verdict.
type Recommendation string

const (
	RecommendationAccept   Recommendation = "LAYAK"
	RecommendationReject   Recommendation = "TIDAK_LAYAK"
	RecommendationRevision Recommendation = "REVISI"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationAccept, RecommendationReject, RecommendationRevision:
		return true
	}
	return false
}

// Review is one reviewer's assessment of one proposal; unique per (proposal, reviewer).
type Review struct {
	ID            string         `db:"id" json:"id"`
	ProposalID    string         `db:"proposal_id" json:"proposal_id"`
	ReviewerID    string         `db:"reviewer_id" json:"reviewer_id"`
	ReviewerName  string         `db:"reviewer_name" json:"reviewer_name,omitempty"`
	SkorTotal     *float64       `db:"skor_total" json:"skor_total,omitempty"`
	Rekomendasi   Recommendation `db:"rekomendasi" json:"rekomendasi"`
	Catatan       string         `db:"catatan" json:"catatan"`
	TanggalReview time.Time      `db:"tanggal_review" json:"tanggal_review"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ReviewSummary aggregates the reviews of one proposal.
type ReviewSummary struct {
	Count                int             `json:"count"`
	AverageScore         *float64        `json:"average_score,omitempty"`
	ActiveRecommendation *Recommendation `json:"active_recommendation,omitempty"`
	Disposition          *ProposalStatus `json:"disposition,omitempty"`
}
