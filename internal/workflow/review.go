package workflow

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// ReviewInput is the reviewer-supplied part of a review.
type ReviewInput struct {
	SkorTotal   *float64
	Rekomendasi models.Recommendation
	Catatan     string
}

// ValidateReviewInput checks score range, recommendation and note length.
func ValidateReviewInput(in ReviewInput, maxNoteLength int) error {
	fields := make(map[string]string)
	if in.SkorTotal != nil {
		s := *in.SkorTotal
		if math.IsNaN(s) || s < 0 || s > 100 {
			fields["skor_total"] = "score must be between 0 and 100"
		}
	}
	if !in.Rekomendasi.Valid() {
		fields["rekomendasi"] = "must be one of LAYAK, TIDAK_LAYAK, REVISI"
	}
	if maxNoteLength > 0 && utf8.RuneCountInString(in.Catatan) > maxNoteLength {
		fields["catatan"] = fmt.Sprintf("note must be at most %d characters", maxNoteLength)
	}
	if len(fields) > 0 {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid review", fields)
	}
	return nil
}

// Aggregate summarises the reviews of a proposal. The disposition follows the
// assigned reviewer's review only; other reviews count towards the average.
func Aggregate(reviews []models.Review, assignedReviewerID string) models.ReviewSummary {
	summary := models.ReviewSummary{Count: len(reviews)}

	var total float64
	var scored int
	for i := range reviews {
		r := reviews[i]
		if r.SkorTotal != nil {
			total += *r.SkorTotal
			scored++
		}
		if assignedReviewerID != "" && r.ReviewerID == assignedReviewerID {
			rec := r.Rekomendasi
			summary.ActiveRecommendation = &rec
			if status, err := DecisionFor(rec); err == nil {
				summary.Disposition = &status
			}
		}
	}
	if scored > 0 {
		avg := math.Round(total/float64(scored)*100) / 100
		summary.AverageScore = &avg
	}
	return summary
}
