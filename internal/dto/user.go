package dto

import "github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"

// CreateUserRequest is used by ADMIN to register an account.
type CreateUserRequest struct {
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=8"`
	FullName     string          `json:"full_name" validate:"required,max=150"`
	Role         models.UserRole `json:"role" validate:"required,oneof=ADMIN DOSEN MAHASISWA REVIEWER"`
	NIDN         *string         `json:"nidn" validate:"omitempty,max=30"`
	NIM          *string         `json:"nim" validate:"omitempty,max=30"`
	DepartmentID *string         `json:"department_id" validate:"omitempty,uuid"`
	ProgramID    *string         `json:"program_id" validate:"omitempty,uuid"`
}

// UpdateUserRequest changes profile fields and status. Role is fixed after creation.
type UpdateUserRequest struct {
	FullName     *string            `json:"full_name" validate:"omitempty,min=1,max=150"`
	Status       *models.UserStatus `json:"status" validate:"omitempty,oneof=AKTIF NONAKTIF"`
	NIDN         *string            `json:"nidn" validate:"omitempty,max=30"`
	NIM          *string            `json:"nim" validate:"omitempty,max=30"`
	DepartmentID *string            `json:"department_id" validate:"omitempty,uuid"`
	ProgramID    *string            `json:"program_id" validate:"omitempty,uuid"`
}

// UserQuery mirrors supported listing filters.
type UserQuery struct {
	Role         string `form:"role"`
	Status       string `form:"status"`
	DepartmentID string `form:"department_id"`
	Search       string `form:"q"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
	SortBy       string `form:"sort_by"`
	SortOrder    string `form:"sort_order"`
}
