package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

// ReferenceRepository reads the department and program master data.
type ReferenceRepository struct {
	db *sqlx.DB
}

func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	var out []models.Department
	if err := r.db.SelectContext(ctx, &out, `SELECT id, kode, nama, created_at, updated_at FROM departments ORDER BY nama`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return out, nil
}

// ListPrograms returns programs, optionally limited to one department.
func (r *ReferenceRepository) ListPrograms(ctx context.Context, departmentID string) ([]models.Program, error) {
	query := `SELECT id, department_id, kode, nama, jenjang, created_at, updated_at FROM programs`
	var args []interface{}
	if departmentID != "" {
		query += ` WHERE department_id = $1`
		args = append(args, departmentID)
	}
	query += ` ORDER BY nama`
	var out []models.Program
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return out, nil
}
