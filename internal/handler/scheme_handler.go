package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// SchemeHandler exposes funding scheme endpoints.
type SchemeHandler struct {
	service *service.SchemeService
}

func NewSchemeHandler(svc *service.SchemeService) *SchemeHandler {
	return &SchemeHandler{service: svc}
}

// List godoc
// @Summary List schemes
// @Tags Schemes
// @Produce json
// @Param status query string false "AKTIF, NONAKTIF or DRAFT"
// @Param kategori query string false "PENELITIAN or PENGABDIAN"
// @Param tahun query int false "Year"
// @Param q query string false "Search term"
// @Success 200 {object} response.Envelope
// @Router /schemes [get]
func (h *SchemeHandler) List(c *gin.Context) {
	var q dto.SchemeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	schemes, pagination, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schemes, pagination)
}

// Get godoc
// @Summary Get scheme
// @Tags Schemes
// @Produce json
// @Param id path string true "Scheme ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schemes/{id} [get]
func (h *SchemeHandler) Get(c *gin.Context) {
	scheme, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scheme, nil)
}

// Create godoc
// @Summary Create scheme
// @Tags Schemes
// @Accept json
// @Produce json
// @Param payload body dto.UpsertSchemeRequest true "Scheme payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schemes [post]
func (h *SchemeHandler) Create(c *gin.Context) {
	var req dto.UpsertSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scheme, err := h.service.Create(c.Request.Context(), req, actorFromContext(c).UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scheme)
}

// Update godoc
// @Summary Update scheme
// @Tags Schemes
// @Accept json
// @Produce json
// @Param id path string true "Scheme ID"
// @Param payload body dto.UpsertSchemeRequest true "Scheme payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schemes/{id} [put]
func (h *SchemeHandler) Update(c *gin.Context) {
	var req dto.UpsertSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scheme, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c).UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scheme, nil)
}

// Delete godoc
// @Summary Delete scheme
// @Description Fails with 409 while proposals reference the scheme
// @Tags Schemes
// @Param id path string true "Scheme ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schemes/{id} [delete]
func (h *SchemeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c).UserID, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
