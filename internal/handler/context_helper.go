package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the workflow actor from the verified claims.
// A missing session yields the zero Actor, which every rule denies.
func actorFromContext(c *gin.Context) workflow.Actor {
	claims := claimsFromContext(c)
	if claims == nil {
		return workflow.Actor{}
	}
	return workflow.Actor{
		UserID: claims.UserID,
		Role:   claims.Role,
		Active: claims.Status == models.UserStatusActive,
	}
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}
