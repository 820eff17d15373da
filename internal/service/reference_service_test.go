package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type memCache struct {
	items map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.items = make(map[string][]byte)
	return nil
}

type countingReference struct {
	calls int
}

func (r *countingReference) ListDepartments(ctx context.Context) ([]models.Department, error) {
	r.calls++
	return []models.Department{{ID: "d-1", Kode: "TI", Nama: "Teknik Elektro"}}, nil
}

func (r *countingReference) ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error) {
	r.calls++
	if departmentID == "" {
		return nil, nil
	}
	return []models.Program{{ID: "p-1", DepartmentID: departmentID, Kode: "TI", Nama: "Teknik Informatika", Jenjang: "D4"}}, nil
}

func TestReferenceServiceCachesLookups(t *testing.T) {
	repo := &countingReference{}
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(&memCache{items: make(map[string][]byte)}, metrics, time.Minute, nil, true)
	svc := NewReferenceService(repo, cacheSvc)
	ctx := context.Background()

	rows, hit, err := svc.Departments(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, rows, 1)

	rows, hit, err = svc.Departments(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "TI", rows[0].Kode)
	assert.Equal(t, 1, repo.calls)

	programs, _, err := svc.Programs(ctx, " d-1 ")
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "d-1", programs[0].DepartmentID)

	programs, hit, err = svc.Programs(ctx, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, programs)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.CacheHits)
}

func TestReferenceServiceWithoutCache(t *testing.T) {
	repo := &countingReference{}
	svc := NewReferenceService(repo, NewCacheService(nil, nil, 0, nil, false))

	for i := 0; i < 2; i++ {
		_, hit, err := svc.Departments(context.Background())
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 2, repo.calls)
}
