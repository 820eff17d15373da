package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type dashboardServiceMock struct {
	actor workflow.Actor
	hit   bool
}

func (m *dashboardServiceMock) Summary(ctx context.Context, actor workflow.Actor) (*dto.DashboardResponse, bool, error) {
	m.actor = actor
	if actor.UserID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return &dto.DashboardResponse{
		Role:  actor.Role,
		Queue: dto.DashboardQueue{Label: "my_proposals", Proposals: []models.Proposal{}},
	}, m.hit, nil
}

func TestDashboardHandlerSummary(t *testing.T) {
	svc := &dashboardServiceMock{hit: true}
	h := NewDashboardHandler(svc)
	c, w := proposalContext(http.MethodGet, "/dashboard", nil, dosenClaims)
	middleware.WithResponseMeta()(c)

	h.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-chair", svc.actor.UserID)
	assert.Contains(t, w.Body.String(), `"my_proposals"`)
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
}

func TestDashboardHandlerWithoutSession(t *testing.T) {
	h := NewDashboardHandler(&dashboardServiceMock{})
	c, w := proposalContext(http.MethodGet, "/dashboard", nil, nil)

	h.Summary(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
