package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type dashboardProposalsStub struct {
	queries []dto.ProposalQuery
	rows    []models.Proposal
}

func (d *dashboardProposalsStub) List(ctx context.Context, actor workflow.Actor, q dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error) {
	d.queries = append(d.queries, q)
	return d.rows, &models.Pagination{Page: 1, PageSize: q.PageSize, TotalCount: len(d.rows) + 10}, nil
}

type statusCounterStub struct {
	calls int
	err   error
}

func (s *statusCounterStub) StatusCounts(ctx context.Context) (map[models.ProposalStatus]int, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return map[models.ProposalStatus]int{models.ProposalStatusSubmitted: 4, models.ProposalStatusReview: 2}, nil
}

type announcementsStub struct{}

func (announcementsStub) List(ctx context.Context, actor workflow.Actor, page, pageSize int) ([]models.Announcement, *models.Pagination, error) {
	return []models.Announcement{{ID: "a-1", Judul: "Batas unggah proposal"}}, nil, nil
}

func TestDashboardAdminCountsAreCached(t *testing.T) {
	proposals := &dashboardProposalsStub{rows: []models.Proposal{{ID: "p-1"}}}
	counter := &statusCounterStub{}
	cacheSvc := NewCacheService(&memCache{items: make(map[string][]byte)}, nil, time.Minute, nil, true)
	svc := NewDashboardService(proposals, counter, announcementsStub{}, cacheSvc, DashboardConfig{}, nil)
	admin := workflow.Actor{UserID: "u-admin", Role: models.RoleAdmin, Active: true}

	out, hit, err := svc.Summary(context.Background(), admin)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, out.StatusCounts[models.ProposalStatusSubmitted])
	assert.Equal(t, 0, out.StatusCounts[models.ProposalStatusApproved])
	assert.Equal(t, "awaiting_reviewer", out.Queue.Label)
	assert.Equal(t, 11, out.Queue.Total)
	assert.Equal(t, "SUBMITTED", proposals.queries[0].Status)
	assert.Equal(t, 5, proposals.queries[0].PageSize)
	assert.Len(t, out.Announcements, 1)

	_, hit, err = svc.Summary(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, counter.calls)
}

func TestDashboardQueuesByRole(t *testing.T) {
	proposals := &dashboardProposalsStub{}
	counter := &statusCounterStub{}
	svc := NewDashboardService(proposals, counter, announcementsStub{}, nil, DashboardConfig{QueueLimit: 3}, nil)
	ctx := context.Background()

	out, _, err := svc.Summary(ctx, workflow.Actor{UserID: "u-rev", Role: models.RoleReviewer, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "to_review", out.Queue.Label)
	assert.Nil(t, out.StatusCounts)
	assert.NotNil(t, out.Queue.Proposals)

	out, _, err = svc.Summary(ctx, workflow.Actor{UserID: "u-m1", Role: models.RoleMahasiswa, Active: true})
	require.NoError(t, err)
	assert.Equal(t, "my_proposals", out.Queue.Label)
	assert.True(t, proposals.queries[1].Mine)
	assert.Zero(t, counter.calls)

	_, _, err = svc.Summary(ctx, workflow.Actor{})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestDashboardCountFailure(t *testing.T) {
	svc := NewDashboardService(&dashboardProposalsStub{}, &statusCounterStub{err: errors.New("db down")}, announcementsStub{}, nil, DashboardConfig{}, nil)

	_, _, err := svc.Summary(context.Background(), workflow.Actor{UserID: "u-admin", Role: models.RoleAdmin, Active: true})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
