package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// NotificationHandler exposes the caller's inbox.
type NotificationHandler struct {
	service *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unread := c.Query("unread") == "true"
	items, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, unread, queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// MarkRead godoc
// @Summary Mark notification read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
