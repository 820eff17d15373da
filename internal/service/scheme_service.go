package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/cache"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type schemeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Scheme, error)
	List(ctx context.Context, filter models.SchemeFilter) ([]models.Scheme, int, error)
	Create(ctx context.Context, s *models.Scheme) error
	Update(ctx context.Context, s *models.Scheme) error
	Delete(ctx context.Context, id string) error
}

type schemeListCache struct {
	Items []models.Scheme     `json:"items"`
	Page  *models.Pagination `json:"page"`
}

// SchemeService manages funding schemes. Lookups are cached in Redis when enabled.
type SchemeService struct {
	repo      schemeRepository
	audit     auditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewSchemeService(repo schemeRepository, audit auditWriter, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger) *SchemeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SchemeService{repo: repo, audit: audit, cache: cacheSvc, validator: validate, logger: logger}
}

// Get returns a scheme by id.
func (s *SchemeService) Get(ctx context.Context, id string) (*models.Scheme, error) {
	key := cache.Key("schemes", "id", id)
	var cached models.Scheme
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "scheme not found", "failed to load scheme")
	}
	s.cache.Set(ctx, key, scheme, 0)
	return scheme, nil
}

// List returns schemes matching the query.
func (s *SchemeService) List(ctx context.Context, q dto.SchemeQuery) ([]models.Scheme, *models.Pagination, error) {
	filter := models.SchemeFilter{Tahun: q.Tahun, Search: strings.TrimSpace(q.Search), Page: q.Page, PageSize: q.PageSize}
	if q.Status != "" {
		status := models.SchemeStatus(strings.ToUpper(q.Status))
		filter.Status = &status
	}
	if q.Kategori != "" {
		kategori := models.SchemeCategory(strings.ToUpper(q.Kategori))
		filter.Kategori = &kategori
	}

	key := cache.Key("schemes", "list", fmt.Sprintf("%s|%s|%d|%s|%d|%d", q.Status, q.Kategori, q.Tahun, filter.Search, q.Page, q.PageSize))
	var cached schemeListCache
	if s.cache.Get(ctx, key, &cached) {
		return cached.Items, cached.Page, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list schemes")
	}
	page := paginate(filter.Page, filter.PageSize, total)
	s.cache.Set(ctx, key, schemeListCache{Items: items, Page: page}, 0)
	return items, page, nil
}

// Create adds a scheme. ADMIN only.
func (s *SchemeService) Create(ctx context.Context, req dto.UpsertSchemeRequest, actorID string, meta RequestMeta) (*models.Scheme, error) {
	scheme := &models.Scheme{}
	if err := s.apply(scheme, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, scheme); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.WithFields(appErrors.ErrConflict, "scheme code already exists", map[string]string{"kode": "already used"})
		}
		return nil, appErrors.Internal(err, "failed to create scheme")
	}
	s.invalidate(ctx)
	writeAudit(ctx, s.audit, s.logger, auditEntry{ActorID: actorID, Action: models.AuditActionSchemeCreate, Resource: "schemes", ResourceID: scheme.ID, New: scheme}, meta)
	return scheme, nil
}

// Update replaces a scheme's fields. ADMIN only.
func (s *SchemeService) Update(ctx context.Context, id string, req dto.UpsertSchemeRequest, actorID string, meta RequestMeta) (*models.Scheme, error) {
	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "scheme not found", "failed to load scheme")
	}
	before := *scheme
	if err := s.apply(scheme, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, scheme); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.WithFields(appErrors.ErrConflict, "scheme code already exists", map[string]string{"kode": "already used"})
		}
		return nil, lookupError(err, "scheme not found", "failed to update scheme")
	}
	s.invalidate(ctx)
	writeAudit(ctx, s.audit, s.logger, auditEntry{ActorID: actorID, Action: models.AuditActionSchemeUpdate, Resource: "schemes", ResourceID: id, Old: before, New: scheme}, meta)
	return scheme, nil
}

// Delete removes a scheme no proposal references.
func (s *SchemeService) Delete(ctx context.Context, id, actorID string, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return appErrors.Clone(appErrors.ErrConflict, "scheme is referenced by proposals; set it NONAKTIF instead")
		}
		return lookupError(err, "scheme not found", "failed to delete scheme")
	}
	s.invalidate(ctx)
	writeAudit(ctx, s.audit, s.logger, auditEntry{ActorID: actorID, Action: models.AuditActionSchemeDelete, Resource: "schemes", ResourceID: id}, meta)
	return nil
}

func (s *SchemeService) apply(scheme *models.Scheme, req dto.UpsertSchemeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheme payload")
	}
	open, errOpen := time.Parse("2006-01-02", req.TanggalBuka)
	closeDate, errClose := time.Parse("2006-01-02", req.TanggalTutup)
	if errOpen != nil || errClose != nil {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid scheme payload", map[string]string{"tanggal_buka": "dates must be YYYY-MM-DD"})
	}
	if closeDate.Before(open) {
		return appErrors.WithFields(appErrors.ErrValidation, "invalid scheme payload", map[string]string{"tanggal_tutup": "must not be before tanggal_buka"})
	}

	scheme.Kode = strings.ToUpper(strings.TrimSpace(req.Kode))
	scheme.Nama = strings.TrimSpace(req.Nama)
	scheme.Kategori = req.Kategori
	scheme.Tahun = req.Tahun
	scheme.DanaMin = req.DanaMin
	scheme.DanaMax = req.DanaMax
	scheme.BatasAnggota = req.BatasAnggota
	scheme.TanggalBuka = open
	scheme.TanggalTutup = closeDate
	scheme.Status = req.Status
	if scheme.Status == "" {
		scheme.Status = models.SchemeStatusDraft
	}
	return nil
}

func (s *SchemeService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Key("schemes")+":*")
}
