package models

import "time"

// AnnouncementAudience defines who can see an announcement.
type AnnouncementAudience string

const (
	AnnouncementAudienceAll       AnnouncementAudience = "ALL"
	AnnouncementAudienceDosen     AnnouncementAudience = "DOSEN"
	AnnouncementAudienceMahasiswa AnnouncementAudience = "MAHASISWA"
	AnnouncementAudienceReviewer  AnnouncementAudience = "REVIEWER"
)

func (a AnnouncementAudience) Valid() bool {
	switch a {
	case AnnouncementAudienceAll, AnnouncementAudienceDosen, AnnouncementAudienceMahasiswa, AnnouncementAudienceReviewer:
		return true
	}
	return false
}

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	Judul       string               `db:"judul" json:"judul"`
	Isi         string               `db:"isi" json:"isi"`
	Audience    AnnouncementAudience `db:"audience" json:"audience"`
	IsPinned    bool                 `db:"is_pinned" json:"is_pinned"`
	PublishedAt time.Time            `db:"published_at" json:"published_at"`
	ExpiresAt   *time.Time           `db:"expires_at" json:"expires_at,omitempty"`
	CreatedBy   string               `db:"created_by" json:"created_by"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	// Audiences empty means all; otherwise ALL plus the listed audiences.
	Audiences []AnnouncementAudience
	ActiveAt  *time.Time
	Page      int
	PageSize  int
}
