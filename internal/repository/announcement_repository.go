package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

const announcementColumns = `id, judul, isi, audience, is_pinned, published_at, expires_at, created_by, created_at, updated_at`

// AnnouncementRepository provides persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements for the given audiences. ActiveAt limits to
// published, unexpired rows; ALL is always included when audiences are given.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var where []string
	var args []interface{}

	if filter.ActiveAt != nil {
		args = append(args, *filter.ActiveAt)
		where = append(where, fmt.Sprintf("published_at <= $%d AND (expires_at IS NULL OR expires_at > $%d)", len(args), len(args)))
	}
	if len(filter.Audiences) > 0 {
		values := []string{string(models.AnnouncementAudienceAll)}
		for _, a := range filter.Audiences {
			if a != models.AnnouncementAudienceAll {
				values = append(values, string(a))
			}
		}
		args = append(args, pq.Array(values))
		where = append(where, fmt.Sprintf("audience = ANY($%d)", len(args)))
	}

	base := "FROM announcements"
	if len(where) > 0 {
		base += " WHERE " + strings.Join(where, " AND ")
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY is_pinned DESC, published_at DESC LIMIT %d OFFSET %d`, announcementColumns, base, limit, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// GetByID returns an announcement by identifier.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
	a.UpdatedAt = now
	const query = `INSERT INTO announcements (id, judul, isi, audience, is_pinned, published_at, expires_at, created_by, created_at, updated_at)
VALUES (:id, :judul, :isi, :audience, :is_pinned, :published_at, :expires_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET judul = :judul, isi = :isi, audience = :audience, is_pinned = :is_pinned,
published_at = :published_at, expires_at = :expires_at, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return expectOneRow(res)
}
