package dto

import (
	"time"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to rotate or revoke.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// Session is the token pair handed out on login and refresh. User is only
// set on login.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	IssuedAt     time.Time    `json:"issued_at"`
	User         *SessionUser `json:"user,omitempty"`
}

// SessionUser is the profile of the token holder.
type SessionUser struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FullName     string            `json:"full_name"`
	Role         models.UserRole   `json:"role"`
	Status       models.UserStatus `json:"status"`
	NIDN         *string           `json:"nidn,omitempty"`
	NIM          *string           `json:"nim,omitempty"`
	DepartmentID *string           `json:"department_id,omitempty"`
	ProgramID    *string           `json:"program_id,omitempty"`
}

// NewSessionUser projects a user for session responses.
func NewSessionUser(u *models.User) *SessionUser {
	return &SessionUser{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		Status:       u.Status,
		NIDN:         u.NIDN,
		NIM:          u.NIM,
		DepartmentID: u.DepartmentID,
		ProgramID:    u.ProgramID,
	}
}
