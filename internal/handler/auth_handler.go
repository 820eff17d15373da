package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req dto.LoginRequest, meta service.RequestMeta) (*dto.Session, error)
	Refresh(ctx context.Context, req dto.RefreshRequest, meta service.RequestMeta) (*dto.Session, error)
	Logout(ctx context.Context, req dto.RefreshRequest, actor workflow.Actor, meta service.RequestMeta) error
	ChangePassword(ctx context.Context, actor workflow.Actor, req dto.ChangePasswordRequest, meta service.RequestMeta) error
	Me(ctx context.Context, actor workflow.Actor) (*dto.SessionUser, error)
}

// AuthHandler exposes session endpoints.
type AuthHandler struct {
	service authService
}

func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	session, err := h.service.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Refresh godoc
// @Summary Rotate a refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid refresh payload"))
		return
	}
	session, err := h.service.Refresh(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags Auth
// @Accept json
// @Security BearerAuth
// @Param payload body dto.RefreshRequest true "Refresh token"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "refresh token required"))
		return
	}
	if err := h.service.Logout(c.Request.Context(), req, actorFromContext(c), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ChangePassword godoc
// @Summary Change own password
// @Description Every session of the user is revoked.
// @Tags Auth
// @Accept json
// @Security BearerAuth
// @Param payload body dto.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), actorFromContext(c), req, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
