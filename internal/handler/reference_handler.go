package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// ReferenceHandler serves jurusan and prodi lookups.
type ReferenceHandler struct {
	service *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// Departments godoc
// @Summary List departments
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reference/departments [get]
func (h *ReferenceHandler) Departments(c *gin.Context) {
	rows, hit, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ResponseMeta(c))
}

// Programs godoc
// @Summary List study programs
// @Tags Reference
// @Produce json
// @Param jurusan_id query string false "Department ID"
// @Success 200 {object} response.Envelope
// @Router /reference/programs [get]
func (h *ReferenceHandler) Programs(c *gin.Context) {
	rows, hit, err := h.service.Programs(c.Request.Context(), c.Query("jurusan_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ResponseMeta(c))
}
