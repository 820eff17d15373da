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

type proposalService interface {
	Create(ctx context.Context, actor workflow.Actor, req dto.CreateProposalRequest, meta service.RequestMeta) (*dto.ProposalDetail, error)
	Get(ctx context.Context, actor workflow.Actor, id string) (*dto.ProposalDetail, error)
	List(ctx context.Context, actor workflow.Actor, q dto.ProposalQuery) ([]models.Proposal, *models.Pagination, error)
	Update(ctx context.Context, actor workflow.Actor, id string, req dto.UpdateProposalRequest, meta service.RequestMeta) (*dto.ProposalDetail, error)
	Delete(ctx context.Context, actor workflow.Actor, id string, meta service.RequestMeta) error
	Submit(ctx context.Context, proposalID string, actor workflow.Actor, meta service.RequestMeta) (*models.Proposal, error)
	AssignReviewer(ctx context.Context, proposalID, reviewerID string, actor workflow.Actor, meta service.RequestMeta) (*models.Proposal, error)
	UpdateMembers(ctx context.Context, proposalID string, memberIDs []string, actor workflow.Actor, meta service.RequestMeta) ([]models.ProposalMember, error)
	Override(ctx context.Context, proposalID string, to models.ProposalStatus, reason string, actor workflow.Actor, meta service.RequestMeta) (*models.Proposal, error)
	History(ctx context.Context, actor workflow.Actor, id string, limit int) ([]models.AuditLog, error)
}

// ProposalHandler exposes the proposal lifecycle endpoints.
type ProposalHandler struct {
	service proposalService
}

// NewProposalHandler builds a proposal handler.
func NewProposalHandler(svc proposalService) *ProposalHandler {
	return &ProposalHandler{service: svc}
}

// List godoc
// @Summary List proposals
// @Description Results are scoped to the caller's role
// @Tags Proposals
// @Produce json
// @Param status query string false "Status filter"
// @Param skema_id query string false "Scheme ID"
// @Param q query string false "Search term"
// @Param mine query bool false "Only proposals the caller belongs to"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	var q dto.ProposalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), actorFromContext(c), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create proposal
// @Description Creates a DRAFT with the caller as KETUA
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body dto.CreateProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Create(c *gin.Context) {
	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.service.Create(c.Request.Context(), actorFromContext(c), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.UpdateProposalRequest true "Proposal payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id} [put]
func (h *ProposalHandler) Update(c *gin.Context) {
	var req dto.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Delete proposal
// @Tags Proposals
// @Param id path string true "Proposal ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id} [delete]
func (h *ProposalHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorFromContext(c), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit proposal
// @Description Moves a DRAFT or REVISION proposal to SUBMITTED
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/submit [post]
func (h *ProposalHandler) Submit(c *gin.Context) {
	proposal, err := h.service.Submit(c.Request.Context(), c.Param("id"), actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// AssignReviewer godoc
// @Summary Assign reviewer
// @Description Moves a SUBMITTED proposal to REVIEW
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.AssignReviewerRequest true "Reviewer"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/reviewer [post]
func (h *ProposalHandler) AssignReviewer(c *gin.Context) {
	var req dto.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	proposal, err := h.service.AssignReviewer(c.Request.Context(), c.Param("id"), req.ReviewerID, actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// UpdateMembers godoc
// @Summary Replace team members
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.UpdateMembersRequest true "Members"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /proposals/{id}/members [put]
func (h *ProposalHandler) UpdateMembers(c *gin.Context) {
	var req dto.UpdateMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	members, err := h.service.UpdateMembers(c.Request.Context(), c.Param("id"), req.MemberIDs, actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// Override godoc
// @Summary Override proposal status
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal ID"
// @Param payload body dto.OverrideStatusRequest true "Target status and reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /proposals/{id}/status [post]
func (h *ProposalHandler) Override(c *gin.Context) {
	var req dto.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	to, err := models.ParseProposalStatus(string(req.Status))
	if err != nil {
		response.Error(c, appErrors.WithFields(appErrors.ErrValidation, "invalid payload", map[string]string{"status": err.Error()}))
		return
	}
	proposal, err := h.service.Override(c.Request.Context(), c.Param("id"), to, req.Reason, actorFromContext(c), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// History godoc
// @Summary Proposal audit history
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal ID"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /proposals/{id}/history [get]
func (h *ProposalHandler) History(c *gin.Context) {
	logs, err := h.service.History(c.Request.Context(), actorFromContext(c), c.Param("id"), queryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
