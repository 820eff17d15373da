package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

type reviewService interface {
	Record(ctx context.Context, proposalID string, req dto.RecordReviewRequest, actor workflow.Actor, meta service.RequestMeta) (*dto.RecordReviewResponse, error)
	List(ctx context.Context, proposalID string, actor workflow.Actor) (*dto.ReviewList, error)
	GetMine(ctx context.Context, proposalID string, actor workflow.Actor) (*models.Review, error)
}

// ReviewHandler exposes review endpoints nested under a proposal.
type ReviewHandler struct {
	service reviewService
}

func NewReviewHandler(svc reviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Record godoc
// @Summary Record review
// @Description Creates or replaces the caller's review. The assigned reviewer's review decides a proposal in REVIEW.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.RecordReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/reviews [put]
func (h *ReviewHandler) Record(c *gin.Context) {
	var req dto.RecordReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Record(c.Request.Context(), c.Param("id"), req, actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List reviews
// @Tags Reviews
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id}/reviews [get]
func (h *ReviewHandler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Mine godoc
// @Summary Get own review
// @Tags Reviews
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id}/reviews/me [get]
func (h *ReviewHandler) Mine(c *gin.Context) {
	review, err := h.service.GetMine(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, review, nil)
}
