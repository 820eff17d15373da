package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type memAnnouncements struct {
	rows    map[string]*models.Announcement
	filters []models.AnnouncementFilter
}

func (m *memAnnouncements) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	m.filters = append(m.filters, filter)
	return nil, 0, nil
}

func (m *memAnnouncements) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *a
	return &copy, nil
}

func (m *memAnnouncements) Create(ctx context.Context, a *models.Announcement) error {
	a.ID = "a-1"
	copy := *a
	m.rows[a.ID] = &copy
	return nil
}

func (m *memAnnouncements) Update(ctx context.Context, a *models.Announcement) error {
	copy := *a
	m.rows[a.ID] = &copy
	return nil
}

func (m *memAnnouncements) Delete(ctx context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

func TestAnnouncementListScopedByAudience(t *testing.T) {
	repo := &memAnnouncements{rows: map[string]*models.Announcement{}}
	svc := NewAnnouncementService(repo, nil, nil, nil)
	now := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	rows, _, err := svc.List(ctx, workflow.Actor{UserID: "u-rev", Role: models.RoleReviewer, Active: true}, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	require.NotNil(t, repo.filters[0].ActiveAt)
	assert.Equal(t, now, *repo.filters[0].ActiveAt)
	assert.Equal(t, []models.AnnouncementAudience{models.AnnouncementAudienceReviewer}, repo.filters[0].Audiences)

	_, _, err = svc.List(ctx, workflow.Actor{UserID: "u-admin", Role: models.RoleAdmin, Active: true}, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, repo.filters[1].ActiveAt)
	assert.Empty(t, repo.filters[1].Audiences)

	_, _, err = svc.List(ctx, workflow.Actor{}, 1, 10)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementCreateDefaultsAndValidation(t *testing.T) {
	repo := &memAnnouncements{rows: map[string]*models.Announcement{}}
	dir := &memDirectory{}
	svc := NewAnnouncementService(repo, dir, nil, nil)
	ctx := context.Background()

	ann, err := svc.Create(ctx, dto.UpsertAnnouncementRequest{Judul: "Batas unggah", Isi: "Unggah sebelum 31 Maret."}, "u-admin", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementAudienceAll, ann.Audience)
	assert.False(t, ann.PublishedAt.IsZero())
	assert.Equal(t, []string{models.AuditActionAnnouncementCreate}, dir.auditActions())

	past := ann.PublishedAt.Add(-time.Hour)
	_, err = svc.Update(ctx, ann.ID, dto.UpsertAnnouncementRequest{Judul: "Batas unggah", Isi: "x", ExpiresAt: &past}, "u-admin", RequestMeta{})
	require.True(t, appErrors.IsValidation(err))
	assert.Contains(t, appErrors.FromError(err).Fields, "expires_at")

	err = svc.Delete(ctx, "missing", "u-admin", RequestMeta{})
	assert.True(t, appErrors.IsNotFound(err))
}
