package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the access token payload. The JWT middleware rejects tokens
// whose role is not one of the four known roles.
type JWTClaims struct {
	UserID string     `json:"user_id"`
	Role   UserRole   `json:"role"`
	Status UserStatus `json:"status"`
	Email  string     `json:"email"`
	jwt.RegisteredClaims
}

// RefreshToken is a persisted refresh session. Each exchange revokes the
// presented token and issues a new one.
type RefreshToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	Revoked   bool       `db:"revoked"`
	RevokedAt *time.Time `db:"revoked_at"`
	IPAddress string     `db:"ip_address"`
	UserAgent string     `db:"user_agent"`
}

// Usable reports whether the session can still be exchanged at now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t != nil && !t.Revoked && now.Before(t.ExpiresAt)
}
