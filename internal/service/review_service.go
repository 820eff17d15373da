package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// DefaultReviewNoteLength caps catatan when no limit is configured.
const DefaultReviewNoteLength = 5000

type reviewStore interface {
	Record(ctx context.Context, review *models.Review, expected models.ProposalStatus, transition *models.ProposalTransition) error
	FindByProposalAndReviewer(ctx context.Context, proposalID, reviewerID string) (*models.Review, error)
	ListByProposal(ctx context.Context, proposalID string) ([]models.Review, error)
}

// ReviewService records reviews and applies the decision they carry.
type ReviewService struct {
	reviews       reviewStore
	proposals     proposalReader
	audit         auditWriter
	notifier      WorkflowNotifier
	metrics       *MetricsService
	machine       *workflow.Machine
	maxNoteLength int
	logger        *zap.Logger
}

func NewReviewService(reviews reviewStore, proposals proposalReader, audit auditWriter, notifier WorkflowNotifier, metrics *MetricsService, maxNoteLength int, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxNoteLength <= 0 {
		maxNoteLength = DefaultReviewNoteLength
	}
	return &ReviewService{
		reviews:       reviews,
		proposals:     proposals,
		audit:         audit,
		notifier:      notifier,
		metrics:       metrics,
		machine:       workflow.NewMachine(),
		maxNoteLength: maxNoteLength,
		logger:        logger,
	}
}

// Record creates or replaces a review. When the assigned reviewer records a
// review on a proposal in REVIEW, the recommendation decides the proposal in
// the same transaction. ADMIN may edit any review at any status without
// moving the proposal. The write only lands while the proposal still has the
// status it was authorized against.
func (s *ReviewService) Record(ctx context.Context, proposalID string, req dto.RecordReviewRequest, actor workflow.Actor, meta RequestMeta) (*dto.RecordReviewResponse, error) {
	loaded, err := loadVisible(ctx, s.proposals, proposalID, actor)
	if err != nil {
		return nil, err
	}
	reviewerID := actor.UserID
	if target := strings.TrimSpace(req.ReviewerID); target != "" && target != actor.UserID {
		if !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "reviewers may only record their own review")
		}
		reviewerID = target
	}
	if err := workflow.Authorize(actor, workflow.ActionReview, loaded.Resource); err != nil {
		return nil, err
	}
	input := workflow.ReviewInput{SkorTotal: req.SkorTotal, Rekomendasi: req.Rekomendasi, Catatan: strings.TrimSpace(req.Catatan)}
	if err := workflow.ValidateReviewInput(input, s.maxNoteLength); err != nil {
		return nil, err
	}

	p := loaded.Proposal
	assigned := p.AssignedReviewer()
	existing, err := s.reviews.FindByProposalAndReviewer(ctx, proposalID, reviewerID)
	if err != nil && !missingRow(err) {
		return nil, appErrors.Internal(err, "failed to load review")
	}
	if existing == nil && reviewerID != actor.UserID && reviewerID != assigned {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid reviewer", map[string]string{
			"reviewer_id": "user has no review of this proposal and is not its assigned reviewer",
		})
	}

	var transition *models.ProposalTransition
	if p.Status == models.ProposalStatusReview && reviewerID == assigned {
		to, err := workflow.DecisionFor(input.Rekomendasi)
		if err != nil {
			return nil, err
		}
		if err := s.machine.Transition(p.Status, to, workflow.TriggerDecide); err != nil {
			return nil, err
		}
		transition = &models.ProposalTransition{ProposalID: p.ID, From: p.Status, To: to}
	}

	review := &models.Review{
		ProposalID:  proposalID,
		ReviewerID:  reviewerID,
		SkorTotal:   input.SkorTotal,
		Rekomendasi: input.Rekomendasi,
		Catatan:     input.Catatan,
	}
	if existing != nil {
		review.ID = existing.ID
	}
	if err := s.reviews.Record(ctx, review, p.Status, transition); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConflict(string(workflow.TriggerDecide))
		}
		return nil, transitionError(err, "failed to record review")
	}

	var old interface{}
	if existing != nil {
		old = map[string]interface{}{"skor_total": existing.SkorTotal, "rekomendasi": existing.Rekomendasi}
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionReviewRecord, Resource: "reviews", ResourceID: review.ID,
		Old: old, New: map[string]interface{}{"proposal_id": proposalID, "reviewer_id": reviewerID, "skor_total": review.SkorTotal, "rekomendasi": review.Rekomendasi},
	}, meta)

	resp := &dto.RecordReviewResponse{Review: *review, ProposalStatus: p.Status}
	if transition != nil {
		s.metrics.RecordTransition(transition.From, transition.To, string(workflow.TriggerDecide))
		resp.ProposalStatus = transition.To
		resp.Transitioned = true
		writeAudit(ctx, s.audit, s.logger, auditEntry{
			ActorID: actor.UserID, Action: models.AuditActionProposalDecision, Resource: "proposals", ResourceID: p.ID,
			Old: map[string]interface{}{"status": transition.From}, New: map[string]interface{}{"status": transition.To, "rekomendasi": review.Rekomendasi},
		}, meta)
		if s.notifier != nil {
			s.notifier.Publish(ctx, models.WorkflowEvent{
				Event:      models.NotificationProposalDecided,
				ProposalID: p.ID,
				Judul:      p.Judul,
				From:       transition.From,
				To:         transition.To,
				ActorID:    actor.UserID,
				Recipients: loaded.teamIDs(),
			})
		}
	}
	return resp, nil
}

// List returns every review of a visible proposal with the aggregate.
// Team members only see reviews once the proposal has been decided.
func (s *ReviewService) List(ctx context.Context, proposalID string, actor workflow.Actor) (*dto.ReviewList, error) {
	loaded, err := loadVisible(ctx, s.proposals, proposalID, actor)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByProposal(ctx, proposalID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reviews")
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == models.RoleReviewer:
		reviews = ownReviews(reviews, actor.UserID)
	case loaded.Proposal.Status == models.ProposalStatusDraft || loaded.Proposal.Status.Reviewable():
		reviews = nil
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &dto.ReviewList{Reviews: reviews, Summary: workflow.Aggregate(reviews, loaded.Proposal.AssignedReviewer())}, nil
}

// GetMine returns the actor's own review of the proposal.
func (s *ReviewService) GetMine(ctx context.Context, proposalID string, actor workflow.Actor) (*models.Review, error) {
	if _, err := loadVisible(ctx, s.proposals, proposalID, actor); err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByProposalAndReviewer(ctx, proposalID, actor.UserID)
	if err != nil {
		return nil, lookupError(err, "review not found", "failed to load review")
	}
	return review, nil
}

func ownReviews(reviews []models.Review, reviewerID string) []models.Review {
	out := make([]models.Review, 0, 1)
	for _, r := range reviews {
		if r.ReviewerID == reviewerID {
			out = append(out, r)
		}
	}
	return out
}
