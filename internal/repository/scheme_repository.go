package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

const schemeColumns = `id, kode, nama, kategori, tahun, dana_min, dana_max, batas_anggota, tanggal_buka, tanggal_tutup, status, created_at, updated_at`

// SchemeRepository persists funding schemes.
type SchemeRepository struct {
	db *sqlx.DB
}

func NewSchemeRepository(db *sqlx.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

// FindByID returns a scheme by identifier.
func (r *SchemeRepository) FindByID(ctx context.Context, id string) (*models.Scheme, error) {
	query := `SELECT ` + schemeColumns + ` FROM schemes WHERE id = $1`
	var s models.Scheme
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find scheme: %w", err)
	}
	return &s, nil
}

// List returns schemes matching the filter with the total count.
func (r *SchemeRepository) List(ctx context.Context, filter models.SchemeFilter) ([]models.Scheme, int, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Kategori != nil {
		args = append(args, *filter.Kategori)
		conditions = append(conditions, fmt.Sprintf("kategori = $%d", len(args)))
	}
	if filter.Tahun > 0 {
		args = append(args, filter.Tahun)
		conditions = append(conditions, fmt.Sprintf("tahun = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(nama) LIKE $%d OR LOWER(kode) LIKE $%d)", len(args), len(args)))
	}
	base := "FROM schemes"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY tahun DESC, nama ASC LIMIT %d OFFSET %d", schemeColumns, base, limit, offset)

	var schemes []models.Scheme
	if err := r.db.SelectContext(ctx, &schemes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schemes: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count schemes: %w", err)
	}
	return schemes, total, nil
}

// Create inserts a scheme.
func (r *SchemeRepository) Create(ctx context.Context, s *models.Scheme) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	const query = `INSERT INTO schemes (id, kode, nama, kategori, tahun, dana_min, dana_max, batas_anggota, tanggal_buka, tanggal_tutup, status, created_at, updated_at)
	VALUES (:id, :kode, :nama, :kategori, :tahun, :dana_min, :dana_max, :batas_anggota, :tanggal_buka, :tanggal_tutup, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create scheme: %w", err)
	}
	return nil
}

// Update replaces the scheme's fields.
func (r *SchemeRepository) Update(ctx context.Context, s *models.Scheme) error {
	s.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schemes SET kode = :kode, nama = :nama, kategori = :kategori, tahun = :tahun, dana_min = :dana_min,
	dana_max = :dana_max, batas_anggota = :batas_anggota, tanggal_buka = :tanggal_buka, tanggal_tutup = :tanggal_tutup,
	status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update scheme: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a scheme that no proposal references.
func (r *SchemeRepository) Delete(ctx context.Context, id string) error {
	var used bool
	if err := r.db.GetContext(ctx, &used, `SELECT EXISTS (SELECT 1 FROM proposals WHERE skema_id = $1)`, id); err != nil {
		return fmt.Errorf("check scheme usage: %w", err)
	}
	if used {
		return ErrInUse
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM schemes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scheme: %w", err)
	}
	return expectOneRow(res)
}
