package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows.
type AnnouncementService struct {
	repo      announcementRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// List returns announcements for the actor. ADMIN sees every row including
// drafts and expired ones; everyone else sees published rows for ALL and
// their own role.
func (s *AnnouncementService) List(ctx context.Context, actor workflow.Actor, page, pageSize int) ([]models.Announcement, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	filter := models.AnnouncementFilter{Page: page, PageSize: pageSize}
	if !actor.IsAdmin() {
		now := s.now().UTC()
		filter.ActiveAt = &now
		filter.Audiences = []models.AnnouncementAudience{audienceFor(actor.Role)}
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list announcements")
	}
	if rows == nil {
		rows = []models.Announcement{}
	}
	return rows, paginate(page, pageSize, total), nil
}

// Get returns an announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	ann, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "announcement not found", "failed to get announcement")
	}
	return ann, nil
}

// Create registers a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, req dto.UpsertAnnouncementRequest, actorID string, meta RequestMeta) (*models.Announcement, error) {
	announcement := &models.Announcement{CreatedBy: actorID}
	if err := s.apply(announcement, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Internal(err, "failed to create announcement")
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionAnnouncementCreate, Resource: "announcements", ResourceID: announcement.ID,
		New: map[string]interface{}{"judul": announcement.Judul, "audience": announcement.Audience},
	}, meta)
	return announcement, nil
}

// Update modifies an existing announcement.
func (s *AnnouncementService) Update(ctx context.Context, id string, req dto.UpsertAnnouncementRequest, actorID string, meta RequestMeta) (*models.Announcement, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "announcement not found", "failed to load announcement")
	}
	before := map[string]interface{}{"judul": existing.Judul, "audience": existing.Audience}
	if err := s.apply(existing, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, lookupError(err, "announcement not found", "failed to update announcement")
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionAnnouncementUpdate, Resource: "announcements", ResourceID: id,
		Old: before, New: map[string]interface{}{"judul": existing.Judul, "audience": existing.Audience},
	}, meta)
	return existing, nil
}

// Delete removes an announcement by id.
func (s *AnnouncementService) Delete(ctx context.Context, id, actorID string, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "announcement not found", "failed to delete announcement")
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actorID, Action: models.AuditActionAnnouncementDelete, Resource: "announcements", ResourceID: id,
	}, meta)
	return nil
}

func (s *AnnouncementService) apply(a *models.Announcement, req dto.UpsertAnnouncementRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	a.Judul = req.Judul
	a.Isi = req.Isi
	a.Audience = req.Audience
	if a.Audience == "" {
		a.Audience = models.AnnouncementAudienceAll
	}
	a.IsPinned = req.IsPinned
	if req.PublishedAt != nil {
		a.PublishedAt = req.PublishedAt.UTC()
	} else if a.PublishedAt.IsZero() {
		a.PublishedAt = s.now().UTC()
	}
	a.ExpiresAt = req.ExpiresAt
	if a.ExpiresAt != nil && !a.ExpiresAt.After(a.PublishedAt) {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid payload", map[string]string{"expires_at": "must be after published_at"})
	}
	return nil
}

func audienceFor(role models.UserRole) models.AnnouncementAudience {
	switch role {
	case models.RoleDosen:
		return models.AnnouncementAudienceDosen
	case models.RoleMahasiswa:
		return models.AnnouncementAudienceMahasiswa
	case models.RoleReviewer:
		return models.AnnouncementAudienceReviewer
	}
	return models.AnnouncementAudienceAll
}
