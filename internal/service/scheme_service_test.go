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
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type memSchemes struct {
	rows      map[string]*models.Scheme
	listCalls int
	deleteErr error
}

func (m *memSchemes) FindByID(ctx context.Context, id string) (*models.Scheme, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *s
	return &copy, nil
}

func (m *memSchemes) List(ctx context.Context, filter models.SchemeFilter) ([]models.Scheme, int, error) {
	m.listCalls++
	var out []models.Scheme
	for _, s := range m.rows {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *memSchemes) Create(ctx context.Context, s *models.Scheme) error {
	for _, existing := range m.rows {
		if existing.Kode == s.Kode {
			return repository.ErrDuplicate
		}
	}
	s.ID = "s-" + s.Kode
	copy := *s
	m.rows[s.ID] = &copy
	return nil
}

func (m *memSchemes) Update(ctx context.Context, s *models.Scheme) error {
	if _, ok := m.rows[s.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *s
	m.rows[s.ID] = &copy
	return nil
}

func (m *memSchemes) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, id)
	return nil
}

func schemeRequest() dto.UpsertSchemeRequest {
	return dto.UpsertSchemeRequest{
		Kode: " pdp ", Nama: "Penelitian Dosen Pemula", Kategori: models.SchemeCategoryResearch, Tahun: 2026,
		DanaMin: 2_000_000, DanaMax: 10_000_000, BatasAnggota: 5,
		TanggalBuka: "2026-02-01", TanggalTutup: "2026-03-31",
	}
}

func TestSchemeCreateNormalizesAndAudits(t *testing.T) {
	repo := &memSchemes{rows: map[string]*models.Scheme{}}
	dir := &memDirectory{}
	svc := NewSchemeService(repo, dir, nil, nil, nil)

	scheme, err := svc.Create(context.Background(), schemeRequest(), "u-admin", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "PDP", scheme.Kode)
	assert.Equal(t, models.SchemeStatusDraft, scheme.Status)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), scheme.TanggalTutup)
	assert.Equal(t, []string{models.AuditActionSchemeCreate}, dir.auditActions())

	_, err = svc.Create(context.Background(), schemeRequest(), "u-admin", RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSchemeCreateValidation(t *testing.T) {
	svc := NewSchemeService(&memSchemes{rows: map[string]*models.Scheme{}}, nil, nil, nil, nil)
	ctx := context.Background()

	req := schemeRequest()
	req.DanaMax = 1_000_000
	_, err := svc.Create(ctx, req, "u-admin", RequestMeta{})
	assert.True(t, appErrors.IsValidation(err))

	req = schemeRequest()
	req.TanggalTutup = "2026-01-15"
	_, err = svc.Create(ctx, req, "u-admin", RequestMeta{})
	require.True(t, appErrors.IsValidation(err))
	assert.Contains(t, appErrors.FromError(err).Fields, "tanggal_tutup")

	req = schemeRequest()
	req.BatasAnggota = 0
	_, err = svc.Create(ctx, req, "u-admin", RequestMeta{})
	assert.True(t, appErrors.IsValidation(err))
}

func TestSchemeListCachedUntilWrite(t *testing.T) {
	repo := &memSchemes{rows: map[string]*models.Scheme{}}
	cacheSvc := NewCacheService(&memCache{items: make(map[string][]byte)}, nil, time.Minute, nil, true)
	svc := NewSchemeService(repo, nil, cacheSvc, nil, nil)
	ctx := context.Background()

	_, _, err := svc.List(ctx, dto.SchemeQuery{})
	require.NoError(t, err)
	_, _, err = svc.List(ctx, dto.SchemeQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Create(ctx, schemeRequest(), "u-admin", RequestMeta{})
	require.NoError(t, err)
	rows, _, err := svc.List(ctx, dto.SchemeQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 2, repo.listCalls)
}

func TestSchemeDeleteInUse(t *testing.T) {
	svc := NewSchemeService(&memSchemes{rows: map[string]*models.Scheme{}, deleteErr: repository.ErrInUse}, nil, nil, nil, nil)

	err := svc.Delete(context.Background(), "s-PDP", "u-admin", RequestMeta{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
