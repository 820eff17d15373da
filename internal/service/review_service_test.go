package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

func scorePtr(v float64) *float64 { return &v }

func TestReviewRevisionThenResubmit(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	resp, err := f.reviews.Record(ctx, id, dto.RecordReviewRequest{
		SkorTotal: scorePtr(62), Rekomendasi: models.RecommendationRevision, Catatan: "Perbaiki metodologi.",
	}, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, resp.Transitioned)
	assert.Equal(t, models.ProposalStatusRevision, resp.ProposalStatus)
	assert.Equal(t, models.ProposalStatusRevision, f.store.status(id))

	abstract := "Abstrak revisi dengan metodologi yang lebih rinci dan terukur."
	_, err = f.proposals.Update(ctx, f.chair, id, dto.UpdateProposalRequest{Abstrak: &abstract}, RequestMeta{})
	require.NoError(t, err)

	p, err := f.proposals.Submit(ctx, id, f.chair, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusSubmitted, p.Status)

	actions := f.dir.auditActions()
	assert.Contains(t, actions, models.AuditActionReviewRecord)
	assert.Contains(t, actions, models.AuditActionProposalDecision)
}

func TestReviewLockedAfterOverrideButAdminMayEdit(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	_, err := f.proposals.Override(ctx, id, models.ProposalStatusApproved, "keputusan rapat", f.admin, RequestMeta{})
	require.NoError(t, err)

	edit := dto.RecordReviewRequest{SkorTotal: scorePtr(80), Rekomendasi: models.RecommendationAccept}
	_, err = f.reviews.Record(ctx, id, edit, f.reviewer, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))

	edit.ReviewerID = "u-rev"
	resp, err := f.reviews.Record(ctx, id, edit, f.admin, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, resp.Transitioned)
	assert.Equal(t, "u-rev", resp.Review.ReviewerID)
	assert.Equal(t, models.ProposalStatusApproved, f.store.status(id))
}

func TestReviewDecisionApprovesAndNotifiesTeam(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	resp, err := f.reviews.Record(ctx, id, dto.RecordReviewRequest{SkorTotal: scorePtr(88.5), Rekomendasi: models.RecommendationAccept}, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusApproved, resp.ProposalStatus)

	last := f.notifier.events[len(f.notifier.events)-1]
	assert.Equal(t, models.NotificationProposalDecided, last.Event)
	assert.ElementsMatch(t, []string{"u-chair", "u-m1"}, last.Recipients)

	list, err := f.reviews.List(ctx, id, f.chair)
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	require.NotNil(t, list.Summary.Disposition)
	assert.Equal(t, models.ProposalStatusApproved, *list.Summary.Disposition)
	assert.Equal(t, 88.5, *list.Summary.AverageScore)
}

func TestReviewRejectsInvalidInputAndOtherReviewers(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	_, err := f.reviews.Record(ctx, id, dto.RecordReviewRequest{SkorTotal: scorePtr(101), Rekomendasi: models.RecommendationAccept}, f.reviewer, RequestMeta{})
	require.True(t, appErrors.IsValidation(err))
	assert.Contains(t, appErrors.FromError(err).Fields, "skor_total")

	_, err = f.reviews.Record(ctx, id, dto.RecordReviewRequest{ReviewerID: "u-rev2", Rekomendasi: models.RecommendationAccept}, f.reviewer, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))

	other := workflow.Actor{UserID: "u-rev2", Role: models.RoleReviewer, Active: true}
	_, err = f.reviews.Record(ctx, id, dto.RecordReviewRequest{Rekomendasi: models.RecommendationAccept}, other, RequestMeta{})
	assert.True(t, appErrors.IsNotFound(err), "unassigned reviewers cannot see the proposal")

	_, err = f.reviews.Record(ctx, id, dto.RecordReviewRequest{Rekomendasi: models.RecommendationAccept}, f.chair, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))
	assert.Equal(t, models.ProposalStatusReview, f.store.status(id))
}

func TestReviewListHiddenFromTeamUntilDecided(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	// Seeded directly so the proposal stays in REVIEW.
	f.store.reviews[id+"/u-rev"] = &models.Review{ID: "r1", ProposalID: id, ReviewerID: "u-rev", Rekomendasi: models.RecommendationAccept}

	list, err := f.reviews.List(ctx, id, f.chair)
	require.NoError(t, err)
	assert.Empty(t, list.Reviews)

	list, err = f.reviews.List(ctx, id, f.reviewer)
	require.NoError(t, err)
	assert.Len(t, list.Reviews, 1)

	mine, err := f.reviews.GetMine(ctx, id, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, "r1", mine.ID)

	_, err = f.reviews.GetMine(ctx, id, f.admin)
	assert.True(t, appErrors.IsNotFound(err))
}

// sendBack records a REVISI decision and resubmits, leaving the proposal in
// SUBMITTED with the reviewer still assigned.
func (f *workflowFixture) sendBack(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	id := f.inReview(t)
	_, err := f.reviews.Record(ctx, id, dto.RecordReviewRequest{SkorTotal: scorePtr(62), Rekomendasi: models.RecommendationRevision}, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	_, err = f.proposals.Submit(ctx, id, f.chair, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusSubmitted, f.store.status(id))
	return id
}

func TestReviewEditableAgainAfterResubmission(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.sendBack(t)

	accept := dto.RecordReviewRequest{SkorTotal: scorePtr(81), Rekomendasi: models.RecommendationAccept}
	resp, err := f.reviews.Record(ctx, id, accept, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, resp.Transitioned)
	assert.Equal(t, models.ProposalStatusSubmitted, resp.ProposalStatus)
	mine, err := f.reviews.GetMine(ctx, id, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationAccept, mine.Rekomendasi)

	// Reassignment only opens the review round; the stored review does not decide it.
	_, err = f.proposals.AssignReviewer(ctx, id, "u-rev", f.admin, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusReview, f.store.status(id))

	resp, err = f.reviews.Record(ctx, id, accept, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, resp.Transitioned)
	assert.Equal(t, models.ProposalStatusApproved, f.store.status(id))
	assert.Equal(t, mine.ID, resp.Review.ID)
}

func TestReviewLockedAfterRejection(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.inReview(t)

	reject := dto.RecordReviewRequest{SkorTotal: scorePtr(30), Rekomendasi: models.RecommendationReject}
	resp, err := f.reviews.Record(ctx, id, reject, f.reviewer, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusRejected, resp.ProposalStatus)

	_, err = f.reviews.Record(ctx, id, reject, f.reviewer, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))

	reject.ReviewerID = "u-rev"
	reject.Catatan = "Dikoreksi admin."
	resp, err = f.reviews.Record(ctx, id, reject, f.admin, RequestMeta{})
	require.NoError(t, err)
	assert.False(t, resp.Transitioned)
	assert.Equal(t, models.ProposalStatusRejected, f.store.status(id))
}

// overrideMidReview moves the proposal to APPROVED after the review service
// has authorized the edit but before it writes.
type overrideMidReview struct{ *memWorkflow }

func (o *overrideMidReview) FindByProposalAndReviewer(ctx context.Context, proposalID, reviewerID string) (*models.Review, error) {
	o.mu.Lock()
	o.proposals[proposalID].Status = models.ProposalStatusApproved
	o.mu.Unlock()
	return o.memWorkflow.FindByProposalAndReviewer(ctx, proposalID, reviewerID)
}

func TestReviewEditLosesToConcurrentOverride(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := f.sendBack(t)
	metrics := NewMetricsService()
	svc := NewReviewService(&overrideMidReview{memWorkflow: f.store}, f.store, f.dir, f.notifier, metrics, 0, nil)

	_, err := svc.Record(ctx, id, dto.RecordReviewRequest{SkorTotal: scorePtr(99), Rekomendasi: models.RecommendationAccept}, f.reviewer, RequestMeta{})
	assert.True(t, appErrors.IsStateConflict(err))
	assert.EqualValues(t, 1, metrics.Snapshot().StateConflicts)

	stored, err := f.store.FindByProposalAndReviewer(ctx, id, "u-rev")
	require.NoError(t, err)
	require.NotNil(t, stored.SkorTotal)
	assert.Equal(t, 62.0, *stored.SkorTotal)
	assert.Equal(t, models.RecommendationRevision, stored.Rekomendasi)
}
