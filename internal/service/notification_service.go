package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/jobs"
)

// JobTypeWorkflowNotification is the queue job type carrying []models.Notification.
const JobTypeWorkflowNotification = "workflow.notification"

// WorkflowNotifier receives committed workflow events.
type WorkflowNotifier interface {
	Publish(ctx context.Context, event models.WorkflowEvent)
}

type notificationStore interface {
	CreateBatch(ctx context.Context, items []models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService fans workflow events out to in-app notifications.
// Delivery goes through the job queue when one is attached.
type NotificationService struct {
	store   notificationStore
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

func NewNotificationService(store notificationStore, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, metrics: metrics, logger: logger}
}

// AttachQueue routes Publish through q. The queue's handler must be HandleJob.
func (s *NotificationService) AttachQueue(q jobEnqueuer) {
	s.queue = q
}

// Publish builds one notification per distinct recipient other than the actor.
func (s *NotificationService) Publish(ctx context.Context, event models.WorkflowEvent) {
	items := buildNotifications(event)
	if len(items) == 0 {
		return
	}
	if s.queue == nil {
		if err := s.deliver(ctx, items); err != nil {
			s.logger.Warn("failed to store notifications", zap.String("proposal_id", event.ProposalID), zap.Error(err))
		}
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeWorkflowNotification, Payload: items}); err != nil {
		s.metrics.RecordNotificationJob("dropped")
		s.logger.Warn("failed to enqueue notifications",
			zap.String("event", string(event.Event)),
			zap.String("proposal_id", event.ProposalID),
			zap.Error(err))
	}
}

// HandleJob persists a queued batch; returning an error lets the queue retry.
func (s *NotificationService) HandleJob(ctx context.Context, job jobs.Job) error {
	items, ok := job.Payload.([]models.Notification)
	if !ok {
		s.metrics.RecordNotificationJob("invalid")
		return nil
	}
	if err := s.deliver(ctx, items); err != nil {
		s.metrics.RecordNotificationJob("failed")
		return err
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, items []models.Notification) error {
	if err := s.store.CreateBatch(ctx, items); err != nil {
		return err
	}
	s.metrics.RecordNotificationJob("delivered")
	return nil
}

// ListMine returns the caller's notifications.
func (s *NotificationService) ListMine(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	items, total, err := s.store.ListForUser(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list notifications")
	}
	return items, paginate(page, pageSize, total), nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.store.MarkRead(ctx, id, userID, time.Now().UTC()); err != nil {
		return lookupError(err, "notification not found", "failed to update notification")
	}
	return nil
}

func buildNotifications(event models.WorkflowEvent) []models.Notification {
	judul, pesan := describeEvent(event)
	seen := make(map[string]bool, len(event.Recipients))
	items := make([]models.Notification, 0, len(event.Recipients))
	proposalID := event.ProposalID
	for _, userID := range event.Recipients {
		if userID == "" || userID == event.ActorID || seen[userID] {
			continue
		}
		seen[userID] = true
		items = append(items, models.Notification{
			UserID:     userID,
			ProposalID: &proposalID,
			Event:      event.Event,
			Judul:      judul,
			Pesan:      pesan,
		})
	}
	return items
}

func describeEvent(e models.WorkflowEvent) (string, string) {
	switch e.Event {
	case models.NotificationProposalSubmitted:
		return "Proposal diajukan", fmt.Sprintf("Proposal %q telah diajukan dan menunggu penugasan reviewer.", e.Judul)
	case models.NotificationReviewerAssigned:
		return "Reviewer ditugaskan", fmt.Sprintf("Proposal %q masuk tahap review.", e.Judul)
	case models.NotificationProposalDecided:
		return "Hasil review", fmt.Sprintf("Proposal %q berstatus %s.", e.Judul, e.To)
	case models.NotificationProposalOverride:
		return "Status diubah admin", fmt.Sprintf("Status proposal %q diubah dari %s ke %s oleh admin.", e.Judul, e.From, e.To)
	}
	return "Pembaruan proposal", fmt.Sprintf("Proposal %q diperbarui.", e.Judul)
}
