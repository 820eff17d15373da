package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// ExportHandler streams proposal recaps.
type ExportHandler struct {
	service *service.ExportService
}

func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Recap godoc
// @Summary Export proposal recap
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param status query string false "Status filter"
// @Param skema_id query string false "Scheme ID"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /exports/proposals [get]
func (h *ExportHandler) Recap(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	file, err := h.service.Recap(c.Request.Context(), actorFromContext(c), q, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("X-Total-Rows", strconv.Itoa(file.Rows))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
