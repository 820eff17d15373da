package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, actor workflow.Actor) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler serves the role-aware landing page.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Dashboard for the signed-in user
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, hit, err := h.service.Summary(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ResponseMeta(c))
}
