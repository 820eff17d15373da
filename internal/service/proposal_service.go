package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	appLogger "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/logger"
)

type proposalStore interface {
	proposalReader
	Create(ctx context.Context, p *models.Proposal, memberIDs []string) error
	List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error)
	UpdateBody(ctx context.Context, p *models.Proposal) error
	Delete(ctx context.Context, id string, status models.ProposalStatus) error
	Transition(ctx context.Context, t models.ProposalTransition) error
	ReplaceMembers(ctx context.Context, proposalID string, expected models.ProposalStatus, memberIDs []string) error
	StatusCounts(ctx context.Context) (map[models.ProposalStatus]int, error)
}

type proposalUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ActiveIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

type schemeLookup interface {
	Get(ctx context.Context, id string) (*models.Scheme, error)
}

type reviewLister interface {
	ListByProposal(ctx context.Context, proposalID string) ([]models.Review, error)
}

// ProposalConfig tunes the workflow rules.
type ProposalConfig struct {
	MinAbstractLength int
	AuditOverrides    bool
	Location          *time.Location
}

// ProposalService is the workflow boundary for proposals: every mutating
// call authorizes the actor, checks the state machine and invariants, and
// persists with a conditional update on the observed status.
type ProposalService struct {
	store     proposalStore
	users     proposalUserStore
	schemes   schemeLookup
	reviews   reviewLister
	notifier  WorkflowNotifier
	metrics   *MetricsService
	machine   *workflow.Machine
	rules     workflow.SubmissionRules
	config    ProposalConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewProposalService(
	store proposalStore,
	users proposalUserStore,
	schemes schemeLookup,
	reviews reviewLister,
	notifier WorkflowNotifier,
	metrics *MetricsService,
	config ProposalConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProposalService{
		store:     store,
		users:     users,
		schemes:   schemes,
		reviews:   reviews,
		notifier:  notifier,
		metrics:   metrics,
		machine:   workflow.NewMachine(),
		rules:     workflow.SubmissionRules{MinAbstractLength: config.MinAbstractLength, Location: config.Location},
		config:    config,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create starts a DRAFT chaired by the actor.
func (s *ProposalService) Create(ctx context.Context, actor workflow.Actor, req dto.CreateProposalRequest, meta RequestMeta) (*dto.ProposalDetail, error) {
	if err := workflow.Authorize(actor, workflow.ActionCreate, workflow.ProposalResource{}); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}
	scheme, err := s.schemeFor(ctx, req.SkemaID)
	if err != nil {
		return nil, err
	}
	memberIDs, err := s.checkTeam(ctx, actor.UserID, req.MemberIDs, scheme.BatasAnggota)
	if err != nil {
		return nil, err
	}

	p := &models.Proposal{
		Judul:      strings.TrimSpace(req.Judul),
		Abstrak:    strings.TrimSpace(req.Abstrak),
		KataKunci:  normalizeKeywords(req.KataKunci),
		DanaUsulan: req.DanaUsulan,
		KetuaID:    actor.UserID,
		SkemaID:    scheme.ID,
	}
	if err := s.store.Create(ctx, p, memberIDs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid team composition", map[string]string{"members": "a user appears twice"})
		}
		return nil, appErrors.Internal(err, "failed to create proposal")
	}
	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalCreate, Resource: "proposals", ResourceID: p.ID,
		New: map[string]interface{}{"judul": p.Judul, "skema_id": p.SkemaID, "members": memberIDs},
	}, meta)
	return s.Get(ctx, actor, p.ID)
}

// Get returns the proposal with its team, scheme, review summary and the
// actor's capabilities.
func (s *ProposalService) Get(ctx context.Context, actor workflow.Actor, id string) (*dto.ProposalDetail, error) {
	loaded, err := loadVisible(ctx, s.store, id, actor)
	if err != nil {
		return nil, err
	}
	detail := &dto.ProposalDetail{
		Proposal:     *loaded.Proposal,
		Members:      loaded.Members,
		Capabilities: capabilities(actor, loaded.Resource),
	}
	if scheme, err := s.schemes.Get(ctx, loaded.Proposal.SkemaID); err == nil {
		detail.Scheme = scheme
	} else {
		s.logger.Warn("proposal scheme unavailable", zap.String("proposal_id", id), zap.Error(err))
	}
	if s.reviews != nil {
		reviews, err := s.reviews.ListByProposal(ctx, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load reviews")
		}
		detail.Reviews = workflow.Aggregate(reviews, loaded.Proposal.AssignedReviewer())
	}
	return detail, nil
}

// List returns the proposals visible to the actor: everything for ADMIN,
// assigned ones for REVIEWER, and own plus non-draft ones for DOSEN and
// MAHASISWA (own only when q.Mine).
func (s *ProposalService) List(ctx context.Context, actor workflow.Actor, q dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	filter := models.ProposalFilter{
		SkemaID:   q.SkemaID,
		Search:    strings.TrimSpace(q.Search),
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
	if q.Status != "" {
		status, err := models.ParseProposalStatus(q.Status)
		if err != nil {
			return nil, nil, appErrors.WithFields(appErrors.ErrValidation, "invalid filter", map[string]string{"status": err.Error()})
		}
		filter.Status = &status
	}
	switch actor.Role {
	case models.RoleAdmin:
		if q.Mine {
			filter.ParticipantID = actor.UserID
		}
	case models.RoleReviewer:
		filter.AssignedReviewerID = actor.UserID
	default:
		filter.ParticipantID = actor.UserID
		filter.IncludeNonDraft = !q.Mine
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list proposals")
	}
	return items, paginate(filter.Page, filter.PageSize, total), nil
}

// Update edits the proposal body while it is DRAFT or REVISION.
func (s *ProposalService) Update(ctx context.Context, actor workflow.Actor, id string, req dto.UpdateProposalRequest, meta RequestMeta) (*dto.ProposalDetail, error) {
	loaded, err := loadVisible(ctx, s.store, id, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionEdit, loaded.Resource); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid proposal payload")
	}

	p := loaded.Proposal
	before := map[string]interface{}{"judul": p.Judul, "dana_usulan": p.DanaUsulan, "skema_id": p.SkemaID}
	if req.Judul != nil {
		p.Judul = strings.TrimSpace(*req.Judul)
	}
	if req.Abstrak != nil {
		p.Abstrak = strings.TrimSpace(*req.Abstrak)
	}
	if req.KataKunci != nil {
		p.KataKunci = normalizeKeywords(*req.KataKunci)
	}
	if req.DanaUsulan != nil {
		p.DanaUsulan = *req.DanaUsulan
	}
	if req.SkemaID != nil && *req.SkemaID != p.SkemaID {
		scheme, err := s.schemeFor(ctx, *req.SkemaID)
		if err != nil {
			return nil, err
		}
		if scheme.BatasAnggota > 0 && 1+len(loaded.Resource.MemberIDs) > scheme.BatasAnggota {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid team composition", map[string]string{
				"skema_id": fmt.Sprintf("team of %d exceeds the scheme limit of %d", 1+len(loaded.Resource.MemberIDs), scheme.BatasAnggota),
			})
		}
		p.SkemaID = scheme.ID
	}

	if err := s.store.UpdateBody(ctx, p); err != nil {
		return nil, transitionError(err, "failed to update proposal")
	}
	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalUpdate, Resource: "proposals", ResourceID: p.ID,
		Old: before, New: map[string]interface{}{"judul": p.Judul, "dana_usulan": p.DanaUsulan, "skema_id": p.SkemaID},
	}, meta)
	return s.Get(ctx, actor, id)
}

// Delete removes a DRAFT. Only the chair or ADMIN may delete.
func (s *ProposalService) Delete(ctx context.Context, actor workflow.Actor, id string, meta RequestMeta) error {
	loaded, err := loadVisible(ctx, s.store, id, actor)
	if err != nil {
		return err
	}
	if err := workflow.Authorize(actor, workflow.ActionDelete, loaded.Resource); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id, loaded.Proposal.Status); err != nil {
		return transitionError(err, "failed to delete proposal")
	}
	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalDelete, Resource: "proposals", ResourceID: id,
		Old: map[string]interface{}{"judul": loaded.Proposal.Judul, "status": loaded.Proposal.Status},
	}, meta)
	return nil
}

// Submit moves a DRAFT or REVISION proposal to SUBMITTED once every
// submission precondition holds.
func (s *ProposalService) Submit(ctx context.Context, proposalID string, actor workflow.Actor, meta RequestMeta) (*models.Proposal, error) {
	loaded, err := loadVisible(ctx, s.store, proposalID, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionSubmit, loaded.Resource); err != nil {
		return nil, err
	}
	p := loaded.Proposal
	to, err := s.machine.Target(p.Status, workflow.TriggerSubmit)
	if err != nil {
		s.metrics.RecordConflict(string(workflow.TriggerSubmit))
		return nil, err
	}

	var scheme *models.Scheme
	if strings.TrimSpace(p.SkemaID) != "" {
		scheme, err = s.schemes.Get(ctx, p.SkemaID)
		if err != nil && !appErrors.IsNotFound(err) {
			return nil, err
		}
	}
	now := s.now()
	if err := s.rules.Check(p, scheme, 1+len(loaded.Resource.MemberIDs), now); err != nil {
		return nil, err
	}

	t := models.ProposalTransition{ProposalID: p.ID, From: p.Status, To: to, At: now}
	if err := s.commit(ctx, t, workflow.TriggerSubmit); err != nil {
		return nil, err
	}
	p.Status = to
	p.SubmittedAt = &now
	p.UpdatedAt = now

	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalSubmit, Resource: "proposals", ResourceID: p.ID,
		Old: map[string]interface{}{"status": t.From}, New: map[string]interface{}{"status": t.To},
	}, meta)
	recipients := loaded.teamIDs()
	if admins, err := s.users.ActiveIDsByRole(ctx, models.RoleAdmin); err == nil {
		recipients = append(recipients, admins...)
	} else {
		s.logger.Warn("failed to resolve admin recipients", zap.Error(err))
	}
	s.publish(ctx, models.NotificationProposalSubmitted, p, t, actor, recipients)
	return p, nil
}

// AssignReviewer sets the reviewer of a SUBMITTED proposal and moves it to REVIEW.
func (s *ProposalService) AssignReviewer(ctx context.Context, proposalID, reviewerID string, actor workflow.Actor, meta RequestMeta) (*models.Proposal, error) {
	loaded, err := loadVisible(ctx, s.store, proposalID, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionAssignReviewer, loaded.Resource); err != nil {
		return nil, err
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if err := s.checkReviewer(ctx, reviewerID, loaded); err != nil {
		return nil, err
	}
	p := loaded.Proposal
	to, err := s.machine.Target(p.Status, workflow.TriggerAssign)
	if err != nil {
		s.metrics.RecordConflict(string(workflow.TriggerAssign))
		return nil, err
	}

	now := s.now()
	t := models.ProposalTransition{ProposalID: p.ID, From: p.Status, To: to, ReviewerID: &reviewerID, At: now}
	if err := s.commit(ctx, t, workflow.TriggerAssign); err != nil {
		return nil, err
	}
	p.Status = to
	p.ReviewerID = &reviewerID
	p.UpdatedAt = now

	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalAssignReviewer, Resource: "proposals", ResourceID: p.ID,
		Old: map[string]interface{}{"status": t.From}, New: map[string]interface{}{"status": t.To, "reviewer_id": reviewerID},
	}, meta)
	s.publish(ctx, models.NotificationReviewerAssigned, p, t, actor, append(loaded.teamIDs(), reviewerID))
	return p, nil
}

// UpdateMembers replaces the ANGGOTA list. The whole resulting team is
// validated before anything is written.
func (s *ProposalService) UpdateMembers(ctx context.Context, proposalID string, memberIDs []string, actor workflow.Actor, meta RequestMeta) ([]models.ProposalMember, error) {
	loaded, err := loadVisible(ctx, s.store, proposalID, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionManageMembers, loaded.Resource); err != nil {
		return nil, err
	}
	scheme, err := s.schemes.Get(ctx, loaded.Proposal.SkemaID)
	if err != nil {
		return nil, err
	}
	cleaned, err := s.checkTeam(ctx, loaded.Proposal.KetuaID, memberIDs, scheme.BatasAnggota)
	if err != nil {
		return nil, err
	}

	if err := s.store.ReplaceMembers(ctx, proposalID, loaded.Proposal.Status, cleaned); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid team composition", map[string]string{"members": "a user appears twice"})
		}
		return nil, transitionError(err, "failed to update proposal members")
	}
	writeAudit(ctx, s.users, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionProposalMembers, Resource: "proposals", ResourceID: proposalID,
		Old: map[string]interface{}{"members": loaded.Resource.MemberIDs}, New: map[string]interface{}{"members": cleaned},
	}, meta)

	members, err := s.store.ListMembers(ctx, proposalID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load proposal members")
	}
	return members, nil
}

// Override forces a status. ADMIN only; the move is conditional on the
// status the admin observed.
func (s *ProposalService) Override(ctx context.Context, proposalID string, to models.ProposalStatus, reason string, actor workflow.Actor, meta RequestMeta) (*models.Proposal, error) {
	loaded, err := loadVisible(ctx, s.store, proposalID, actor)
	if err != nil {
		return nil, err
	}
	if err := workflow.Authorize(actor, workflow.ActionOverride, loaded.Resource); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(dto.OverrideStatusRequest{Status: to, Reason: reason}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	p := loaded.Proposal
	if err := s.machine.Transition(p.Status, to, workflow.TriggerOverride); err != nil {
		s.metrics.RecordConflict(string(workflow.TriggerOverride))
		return nil, err
	}

	now := s.now()
	t := models.ProposalTransition{ProposalID: p.ID, From: p.Status, To: to, At: now}
	if err := s.commit(ctx, t, workflow.TriggerOverride); err != nil {
		return nil, err
	}
	p.Status = to
	p.UpdatedAt = now

	appLogger.For(ctx, s.logger).Warn("proposal status overridden",
		zap.String("actor_id", actor.UserID),
		zap.String("proposal_id", p.ID),
		zap.String("from", string(t.From)),
		zap.String("to", string(t.To)),
		zap.String("reason", reason))
	if s.config.AuditOverrides {
		writeAudit(ctx, s.users, s.logger, auditEntry{
			ActorID: actor.UserID, Action: models.AuditActionProposalOverride, Resource: "proposals", ResourceID: p.ID,
			Old: map[string]interface{}{"status": t.From}, New: map[string]interface{}{"status": t.To, "reason": reason},
		}, meta)
	}
	s.publish(ctx, models.NotificationProposalOverride, p, t, actor, append(loaded.teamIDs(), p.AssignedReviewer()))
	return p, nil
}

// History returns the newest audit rows of a proposal. Only ADMIN and the
// team may read it.
func (s *ProposalService) History(ctx context.Context, actor workflow.Actor, id string, limit int) ([]models.AuditLog, error) {
	loaded, err := loadVisible(ctx, s.store, id, actor)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !containsID(loaded.teamIDs(), actor.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the team may read the proposal history")
	}
	logs, err := s.users.ListAuditLogs(ctx, "proposals", id, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load proposal history")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

// RefreshStatusMetrics updates the per-status gauge.
func (s *ProposalService) RefreshStatusMetrics(ctx context.Context) error {
	counts, err := s.store.StatusCounts(ctx)
	if err != nil {
		return appErrors.Internal(err, "failed to count proposals")
	}
	s.metrics.SetProposalStatusCounts(counts)
	return nil
}

func (s *ProposalService) commit(ctx context.Context, t models.ProposalTransition, trigger workflow.Trigger) error {
	if err := s.store.Transition(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordConflict(string(trigger))
		}
		return transitionError(err, "failed to update proposal status")
	}
	s.metrics.RecordTransition(t.From, t.To, string(trigger))
	return nil
}

func (s *ProposalService) publish(ctx context.Context, event models.NotificationEvent, p *models.Proposal, t models.ProposalTransition, actor workflow.Actor, recipients []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, models.WorkflowEvent{
		Event:      event,
		ProposalID: p.ID,
		Judul:      p.Judul,
		From:       t.From,
		To:         t.To,
		ActorID:    actor.UserID,
		Recipients: recipients,
	})
}

// schemeFor resolves a scheme referenced by a payload; a missing scheme is a field error.
func (s *ProposalService) schemeFor(ctx context.Context, id string) (*models.Scheme, error) {
	scheme, err := s.schemes.Get(ctx, id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid proposal payload", map[string]string{"skema_id": "scheme not found"})
		}
		return nil, err
	}
	return scheme, nil
}

// checkTeam validates the team composition and that every member is an
// AKTIF DOSEN or MAHASISWA account.
func (s *ProposalService) checkTeam(ctx context.Context, chairID string, memberIDs []string, limit int) ([]string, error) {
	cleaned, err := workflow.ValidateMembers(chairID, memberIDs, limit)
	if err != nil {
		return nil, err
	}
	if len(cleaned) == 0 {
		return cleaned, nil
	}
	users, err := s.users.FindByIDs(ctx, cleaned)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load members")
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	fields := make(map[string]string)
	for i, id := range cleaned {
		u, ok := byID[id]
		key := fmt.Sprintf("members[%d]", i)
		switch {
		case !ok:
			fields[key] = "user not found"
		case !u.Active():
			fields[key] = "user is inactive"
		case u.Role != models.RoleDosen && u.Role != models.RoleMahasiswa:
			fields[key] = "only DOSEN and MAHASISWA can be team members"
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid team composition", fields)
	}
	return cleaned, nil
}

func (s *ProposalService) checkReviewer(ctx context.Context, reviewerID string, loaded *loadedProposal) error {
	invalid := func(msg string) error {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid reviewer", map[string]string{"reviewer_id": msg})
	}
	if reviewerID == "" {
		return invalid("reviewer is required")
	}
	if reviewerID == loaded.Proposal.KetuaID {
		return invalid("the chair cannot review their own proposal")
	}
	for _, id := range loaded.Resource.MemberIDs {
		if id == reviewerID {
			return invalid("a team member cannot review the proposal")
		}
	}
	reviewer, err := s.users.FindByID(ctx, reviewerID)
	if err != nil {
		if missingRow(err) {
			return invalid("reviewer not found")
		}
		return appErrors.Internal(err, "failed to load reviewer")
	}
	if reviewer.Role != models.RoleReviewer {
		return invalid("user is not a REVIEWER")
	}
	if !reviewer.Active() {
		return invalid("reviewer account is inactive")
	}
	return nil
}

// normalizeKeywords trims each comma-separated keyword and drops blanks.
func normalizeKeywords(raw string) string {
	p := models.Proposal{KataKunci: raw}
	return strings.Join(p.Keywords(), ", ")
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
