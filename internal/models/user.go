package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleDosen     UserRole = "DOSEN"
	RoleMahasiswa UserRole = "MAHASISWA"
	RoleReviewer  UserRole = "REVIEWER"
)

// Valid reports whether r is one of the four known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleDosen, RoleMahasiswa, RoleReviewer:
		return true
	}
	return false
}

// UserStatus toggles whether an account may act at all.
type UserStatus string

const (
	UserStatusActive   UserStatus = "AKTIF"
	UserStatusInactive UserStatus = "NONAKTIF"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	NIDN         *string    `db:"nidn" json:"nidn,omitempty"`
	NIM          *string    `db:"nim" json:"nim,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Status       UserStatus `db:"status" json:"status"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	ProgramID    *string    `db:"program_id" json:"program_id,omitempty"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the account is AKTIF.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role         *UserRole
	Status       *UserStatus
	DepartmentID string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
