package models

import "time"

// NotificationEvent names the workflow event that produced a notification.
type NotificationEvent string

const (
	NotificationProposalSubmitted NotificationEvent = "PROPOSAL_SUBMITTED"
	NotificationReviewerAssigned  NotificationEvent = "REVIEWER_ASSIGNED"
	NotificationProposalDecided   NotificationEvent = "PROPOSAL_DECIDED"
	NotificationProposalOverride  NotificationEvent = "PROPOSAL_OVERRIDDEN"
)

// Notification is an in-app message for one recipient.
type Notification struct {
	ID         string            `db:"id" json:"id"`
	UserID     string            `db:"user_id" json:"user_id"`
	ProposalID *string           `db:"proposal_id" json:"proposal_id,omitempty"`
	Event      NotificationEvent `db:"event" json:"event"`
	Judul      string            `db:"judul" json:"judul"`
	Pesan      string            `db:"pesan" json:"pesan"`
	ReadAt     *time.Time        `db:"read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}

// WorkflowEvent is queued after a committed transition and fanned out to recipients.
type WorkflowEvent struct {
	Event      NotificationEvent
	ProposalID string
	Judul      string
	From       ProposalStatus
	To         ProposalStatus
	ActorID    string
	Recipients []string
}
