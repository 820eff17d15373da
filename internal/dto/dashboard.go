package dto

import (
	"time"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// DashboardResponse is the landing page payload. Its content depends on the
// caller's role.
type DashboardResponse struct {
	Role models.UserRole `json:"role"`
	// StatusCounts is only filled for ADMIN.
	StatusCounts  map[models.ProposalStatus]int `json:"status_counts,omitempty"`
	Queue         DashboardQueue                `json:"queue"`
	Announcements []models.Announcement         `json:"announcements"`
	GeneratedAt   time.Time                     `json:"generated_at"`
}

// DashboardQueue is the short list of proposals needing the caller's attention.
type DashboardQueue struct {
	Label     string            `json:"label"`
	Total     int               `json:"total"`
	Proposals []models.Proposal `json:"proposals"`
}
