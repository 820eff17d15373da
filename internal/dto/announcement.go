package dto

import (
	"time"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// UpsertAnnouncementRequest creates or replaces an announcement.
type UpsertAnnouncementRequest struct {
	Judul       string                      `json:"judul" validate:"required,max=200"`
	Isi         string                      `json:"isi" validate:"required"`
	Audience    models.AnnouncementAudience `json:"audience" validate:"omitempty,oneof=ALL DOSEN MAHASISWA REVIEWER"`
	IsPinned    bool                        `json:"is_pinned"`
	PublishedAt *time.Time                  `json:"published_at"`
	ExpiresAt   *time.Time                  `json:"expires_at"`
}
