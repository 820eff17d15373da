package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/database"
)

const notificationColumns = `id, user_id, proposal_id, event, judul, pesan, read_at, created_at`

// NotificationRepository persists in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts one row per notification in a single transaction.
func (r *NotificationRepository) CreateBatch(ctx context.Context, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO notifications (id, user_id, proposal_id, event, judul, pesan, created_at)
	VALUES (:id, :user_id, :proposal_id, :event, :judul, :pesan, :created_at)`
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range items {
			if _, err := tx.NamedExecContext(ctx, query, &items[i]); err != nil {
				return fmt.Errorf("create notification: %w", err)
			}
		}
		return nil
	})
}

// ListForUser returns the user's notifications, newest first, with the unread count.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error) {
	where := `WHERE user_id = $1`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}
	limit, offset := pageWindow(page, pageSize)
	query := fmt.Sprintf(`SELECT %s FROM notifications %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, notificationColumns, where, limit, offset)
	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications `+where, userID); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead sets read_at on an unread notification owned by userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read_at = $3 WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID, at)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return expectOneRow(res)
}
