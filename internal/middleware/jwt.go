package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a valid bearer token from an AKTIF account.
func JWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, validator)
		if err == nil && claims.Status != models.UserStatusActive {
			err = appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
		}
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is sent and otherwise lets
// the request through anonymously. Signed download links use it so the
// audit row names the user when there is one.
func OptionalJWT(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, err := bearerClaims(c, validator); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, validator tokenValidator) (*models.JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return validator.ValidateToken(strings.TrimSpace(token))
}
