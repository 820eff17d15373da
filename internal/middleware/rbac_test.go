package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

func serveWithRole(role models.UserRole, mw gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if role != "" {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: role, Status: models.UserStatusActive})
		}
		c.Next()
	})
	r.GET("/", mw, func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func TestRequireRoles(t *testing.T) {
	gate := RequireRoles(models.RoleDosen, models.RoleMahasiswa)

	assert.Equal(t, http.StatusOK, serveWithRole(models.RoleDosen, gate))
	assert.Equal(t, http.StatusForbidden, serveWithRole(models.RoleReviewer, gate))
	assert.Equal(t, http.StatusUnauthorized, serveWithRole("", gate))
	assert.Equal(t, http.StatusForbidden, serveWithRole(models.RoleDosen, RequireAdmin()))
	assert.Equal(t, http.StatusOK, serveWithRole(models.RoleAdmin, RequireAdmin()))
}
