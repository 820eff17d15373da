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
	"github.com/lib/pq"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/database"
)

const proposalColumns = `p.id, p.judul, p.abstrak, p.kata_kunci, p.dana_usulan, p.status, p.ketua_id, p.reviewer_id, p.skema_id, p.submitted_at, p.reviewed_at, p.created_at, p.updated_at`

// ProposalRepository persists proposals and their team rows. Every status
// change is a conditional update on the observed status.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs the repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a DRAFT proposal, its KETUA row and the initial ANGGOTA rows in one transaction.
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal, memberIDs []string) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.Status = models.ProposalStatusDraft
	p.CreatedAt = now
	p.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertProposal = `INSERT INTO proposals (id, judul, abstrak, kata_kunci, dana_usulan, status, ketua_id, skema_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		if _, err := tx.ExecContext(ctx, insertProposal, p.ID, p.Judul, p.Abstrak, p.KataKunci, p.DanaUsulan, p.Status, p.KetuaID, p.SkemaID, now, now); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		const insertChair = `INSERT INTO proposal_members (proposal_id, user_id, peran, created_at) VALUES ($1, $2, $3, $4)`
		if _, err := tx.ExecContext(ctx, insertChair, p.ID, p.KetuaID, models.MemberRoleChair, now); err != nil {
			return fmt.Errorf("create proposal chair: %w", err)
		}
		return insertMembers(ctx, tx, p.ID, memberIDs, now)
	})
}

// FindByID returns a proposal by identifier.
func (r *ProposalRepository) FindByID(ctx context.Context, id string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals p WHERE p.id = $1`
	var p models.Proposal
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find proposal: %w", err)
	}
	return &p, nil
}

// ListMembers returns the KETUA row followed by ANGGOTA rows.
func (r *ProposalRepository) ListMembers(ctx context.Context, proposalID string) ([]models.ProposalMember, error) {
	const query = `SELECT m.proposal_id, m.user_id, m.peran, u.full_name, m.created_at
	FROM proposal_members m JOIN users u ON u.id = m.user_id
	WHERE m.proposal_id = $1 ORDER BY CASE m.peran WHEN 'KETUA' THEN 0 ELSE 1 END, m.created_at, u.full_name`
	var members []models.ProposalMember
	if err := r.db.SelectContext(ctx, &members, query, proposalID); err != nil {
		return nil, fmt.Errorf("list proposal members: %w", err)
	}
	return members, nil
}

// List returns proposals matching the filter with the total count.
func (r *ProposalRepository) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if filter.SkemaID != "" {
		args = append(args, filter.SkemaID)
		conditions = append(conditions, fmt.Sprintf("p.skema_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(p.judul) LIKE $%d OR LOWER(p.kata_kunci) LIKE $%d)", len(args), len(args)))
	}

	var visibility []string
	if filter.ParticipantID != "" {
		args = append(args, filter.ParticipantID)
		visibility = append(visibility, fmt.Sprintf("(p.ketua_id = $%d OR EXISTS (SELECT 1 FROM proposal_members m WHERE m.proposal_id = p.id AND m.user_id = $%d))", len(args), len(args)))
	}
	if filter.AssignedReviewerID != "" {
		args = append(args, filter.AssignedReviewerID)
		visibility = append(visibility, fmt.Sprintf("p.reviewer_id = $%d", len(args)))
	}
	if filter.IncludeNonDraft {
		visibility = append(visibility, fmt.Sprintf("p.status <> '%s'", models.ProposalStatusDraft))
	}
	if len(visibility) > 0 {
		conditions = append(conditions, "("+strings.Join(visibility, " OR ")+")")
	}

	base := "FROM proposals p"
	if len(conditions) > 0 {
		base += " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]bool{"created_at": true, "updated_at": true, "submitted_at": true, "judul": true, "dana_usulan": true}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	limit, offset := pageWindow(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY p.%s %s LIMIT %d OFFSET %d", proposalColumns, base, sortBy, normalizeSortOrder(filter.SortOrder), limit, offset)

	var proposals []models.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}
	return proposals, total, nil
}

// UpdateBody writes the editable fields while the status is still the one the caller observed.
func (r *ProposalRepository) UpdateBody(ctx context.Context, p *models.Proposal) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE proposals SET judul = $3, abstrak = $4, kata_kunci = $5, dana_usulan = $6, skema_id = $7, updated_at = $8
	WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.Status, p.Judul, p.Abstrak, p.KataKunci, p.DanaUsulan, p.SkemaID, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes a proposal that is still in the given status.
func (r *ProposalRepository) Delete(ctx context.Context, id string, status models.ProposalStatus) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1 AND status = $2`, id, status)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	return expectOneRow(res)
}

// Transition moves the proposal from t.From to t.To. sql.ErrNoRows means the
// status was no longer t.From.
func (r *ProposalRepository) Transition(ctx context.Context, t models.ProposalTransition) error {
	query, args := transitionQuery(t)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition proposal: %w", err)
	}
	return expectOneRow(res)
}

// ReplaceMembers swaps the ANGGOTA rows for memberIDs while the proposal is still
// in expected. The whole set is replaced or nothing is.
func (r *ProposalRepository) ReplaceMembers(ctx context.Context, proposalID string, expected models.ProposalStatus, memberIDs []string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var current models.ProposalStatus
		if err := tx.GetContext(ctx, &current, `SELECT status FROM proposals WHERE id = $1 FOR UPDATE`, proposalID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock proposal: %w", err)
		}
		if current != expected {
			return sql.ErrNoRows
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM proposal_members WHERE proposal_id = $1 AND peran = $2`, proposalID, models.MemberRoleMember); err != nil {
			return fmt.Errorf("clear proposal members: %w", err)
		}
		if err := insertMembers(ctx, tx, proposalID, memberIDs, time.Now().UTC()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE proposals SET updated_at = $2 WHERE id = $1`, proposalID, time.Now().UTC()); err != nil {
			return fmt.Errorf("touch proposal: %w", err)
		}
		return nil
	})
}

// StatusCounts returns the number of proposals per status.
func (r *ProposalRepository) StatusCounts(ctx context.Context) (map[models.ProposalStatus]int, error) {
	var rows []struct {
		Status models.ProposalStatus `db:"status"`
		Total  int                   `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS total FROM proposals GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count proposals by status: %w", err)
	}
	out := make(map[models.ProposalStatus]int, len(models.ProposalStatuses))
	for _, s := range models.ProposalStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func insertMembers(ctx context.Context, tx *sqlx.Tx, proposalID string, memberIDs []string, at time.Time) error {
	if len(memberIDs) == 0 {
		return nil
	}
	const query = `INSERT INTO proposal_members (proposal_id, user_id, peran, created_at)
	SELECT $1, member_id, $3, $4 FROM UNNEST($2::uuid[]) AS member_id`
	if _, err := tx.ExecContext(ctx, query, proposalID, pq.Array(memberIDs), models.MemberRoleMember, at); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert proposal members: %w", err)
	}
	return nil
}

// transitionQuery renders the conditional status update. Timestamps follow the target status.
func transitionQuery(t models.ProposalTransition) (string, []interface{}) {
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	args := []interface{}{t.ProposalID, t.From, t.To, at}
	sets := []string{"status = $3", "updated_at = $4"}
	switch t.To {
	case models.ProposalStatusSubmitted:
		sets = append(sets, "submitted_at = $4")
	case models.ProposalStatusApproved, models.ProposalStatusRejected, models.ProposalStatusRevision:
		sets = append(sets, "reviewed_at = $4")
	}
	if t.ReviewerID != nil {
		args = append(args, *t.ReviewerID)
		sets = append(sets, fmt.Sprintf("reviewer_id = $%d", len(args)))
	}
	return fmt.Sprintf("UPDATE proposals SET %s WHERE id = $1 AND status = $2", strings.Join(sets, ", ")), args
}
