package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/cache"
)

type dashboardProposals interface {
	List(ctx context.Context, actor workflow.Actor, q dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error)
}

type statusCounter interface {
	StatusCounts(ctx context.Context) (map[models.ProposalStatus]int, error)
}

type dashboardAnnouncements interface {
	List(ctx context.Context, actor workflow.Actor, page, pageSize int) ([]models.Announcement, *models.Pagination, error)
}

// DashboardConfig tunes dashboard behaviour.
type DashboardConfig struct {
	CacheTTL          time.Duration
	QueueLimit        int
	AnnouncementLimit int
}

// DashboardService composes the landing page from the proposal and
// announcement services, so role scoping is inherited from them.
type DashboardService struct {
	proposals     dashboardProposals
	counts        statusCounter
	announcements dashboardAnnouncements
	cache         *CacheService
	cfg           DashboardConfig
	logger        *zap.Logger
	now           func() time.Time
}

func NewDashboardService(proposals dashboardProposals, counts statusCounter, announcements dashboardAnnouncements, cacheSvc *CacheService, cfg DashboardConfig, logger *zap.Logger) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = 5
	}
	if cfg.AnnouncementLimit <= 0 {
		cfg.AnnouncementLimit = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		proposals:     proposals,
		counts:        counts,
		announcements: announcements,
		cache:         cacheSvc,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Summary returns the dashboard for actor and whether the status counts came
// from the cache.
func (s *DashboardService) Summary(ctx context.Context, actor workflow.Actor) (*dto.DashboardResponse, bool, error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}
	out := &dto.DashboardResponse{Role: actor.Role, GeneratedAt: s.now().UTC()}

	var hit bool
	if actor.IsAdmin() {
		counts, cached, err := s.statusCounts(ctx)
		if err != nil {
			return nil, false, err
		}
		out.StatusCounts, hit = counts, cached
	}

	label, query := queueFor(actor.Role)
	query.Page, query.PageSize = 1, s.cfg.QueueLimit
	rows, page, err := s.proposals.List(ctx, actor, query)
	if err != nil {
		return nil, false, err
	}
	out.Queue = dashboardQueue(label, rows, page)

	announcements, _, err := s.announcements.List(ctx, actor, 1, s.cfg.AnnouncementLimit)
	if err != nil {
		return nil, false, err
	}
	out.Announcements = announcements
	return out, hit, nil
}

func (s *DashboardService) statusCounts(ctx context.Context) (map[models.ProposalStatus]int, bool, error) {
	key := cache.Key("dashboard", "status_counts")
	var cached map[models.ProposalStatus]int
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	counts, err := s.counts.StatusCounts(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to count proposals")
	}
	for _, status := range models.ProposalStatuses {
		if _, ok := counts[status]; !ok {
			counts[status] = 0
		}
	}
	s.cache.Set(ctx, key, counts, s.cfg.CacheTTL)
	return counts, false, nil
}

// queueFor picks the proposals each role acts on next.
func queueFor(role models.UserRole) (string, dto.ProposalQuery) {
	switch role {
	case models.RoleAdmin:
		return "awaiting_reviewer", dto.ProposalQuery{Status: string(models.ProposalStatusSubmitted), SortBy: "submitted_at", SortOrder: "asc"}
	case models.RoleReviewer:
		return "to_review", dto.ProposalQuery{Status: string(models.ProposalStatusReview), SortBy: "submitted_at", SortOrder: "asc"}
	default:
		return "my_proposals", dto.ProposalQuery{Mine: true, SortBy: "updated_at", SortOrder: "desc"}
	}
}

func dashboardQueue(label string, rows []models.Proposal, page *models.Pagination) dto.DashboardQueue {
	q := dto.DashboardQueue{Label: label, Proposals: rows}
	if q.Proposals == nil {
		q.Proposals = []models.Proposal{}
	}
	if page != nil {
		q.Total = page.TotalCount
	}
	return q
}
