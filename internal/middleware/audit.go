package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// AuditResourceKey lets a handler name the resource a request touched.
const AuditResourceKey = "auditResourceID"

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records an audit row after successful requests. It covers routes whose
// services do not write their own audit trail, such as token downloads.
func Audit(repo auditLogWriter, action, resource string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := claimsFrom(c); ok {
			userID = &claims.UserID
		}
		var resourceID *string
		if id := c.GetString(AuditResourceKey); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := repo.CreateAuditLog(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
		}
	}
}
