package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	service *service.AnnouncementService
}

func NewAnnouncementHandler(svc *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), actorFromContext(c), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body dto.UpsertAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.UpsertAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req, actorFromContext(c).UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body dto.UpsertAnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpsertAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c).UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 204 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c).UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
