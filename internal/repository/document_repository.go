package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
)

const documentColumns = `id, proposal_id, nama, tipe, mime_type, ukuran, storage_key, uploaded_by, created_at`

// DocumentRepository stores attachment metadata. File bytes live in storage.
type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *models.Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, proposal_id, nama, tipe, mime_type, ukuran, storage_key, uploaded_by, created_at)
	VALUES (:id, :proposal_id, :nama, :tipe, :mime_type, :ukuran, :storage_key, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, d); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	var d models.Document
	if err := r.db.GetContext(ctx, &d, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepository) ListByProposal(ctx context.Context, proposalID string) ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, `SELECT `+documentColumns+` FROM documents WHERE proposal_id = $1 ORDER BY created_at DESC`, proposalID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectOneRow(res)
}
