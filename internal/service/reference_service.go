package service

import (
	"context"
	"strings"
	"time"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/cache"
)

const referenceCacheTTL = time.Hour

type referenceRepository interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error)
}

// ReferenceService serves the read-only jurusan and prodi lookups.
type ReferenceService struct {
	repo  referenceRepository
	cache *CacheService
}

func NewReferenceService(repo referenceRepository, cacheSvc *CacheService) *ReferenceService {
	return &ReferenceService{repo: repo, cache: cacheSvc}
}

// Departments lists every jurusan. The flag reports whether the rows came
// from the cache.
func (s *ReferenceService) Departments(ctx context.Context) ([]models.Department, bool, error) {
	key := cache.Key("reference", "departments")
	var cached []models.Department
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	rows, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list departments")
	}
	if rows == nil {
		rows = []models.Department{}
	}
	s.cache.Set(ctx, key, rows, referenceCacheTTL)
	return rows, false, nil
}

// Programs lists study programs, optionally for one department.
func (s *ReferenceService) Programs(ctx context.Context, departmentID string) ([]models.Program, bool, error) {
	departmentID = strings.TrimSpace(departmentID)
	key := cache.Key("reference", "programs", departmentID)
	var cached []models.Program
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	rows, err := s.repo.ListPrograms(ctx, departmentID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list programs")
	}
	if rows == nil {
		rows = []models.Program{}
	}
	s.cache.Set(ctx, key, rows, referenceCacheTTL)
	return rows, false, nil
}
