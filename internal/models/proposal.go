package models

import (
	"fmt"
	"strings"
	"time"
)

// ProposalStatus is the lifecycle position of a proposal.
type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "DRAFT"
	ProposalStatusSubmitted ProposalStatus = "SUBMITTED"
	ProposalStatusReview    ProposalStatus = "REVIEW"
	ProposalStatusApproved  ProposalStatus = "APPROVED"
	ProposalStatusRejected  ProposalStatus = "REJECTED"
	ProposalStatusRevision  ProposalStatus = "REVISION"
)

// ProposalStatuses lists every status in lifecycle order.
var ProposalStatuses = []ProposalStatus{
	ProposalStatusDraft,
	ProposalStatusSubmitted,
	ProposalStatusReview,
	ProposalStatusApproved,
	ProposalStatusRejected,
	ProposalStatusRevision,
}

// ParseProposalStatus accepts the six known values, case-insensitively.
func ParseProposalStatus(raw string) (ProposalStatus, error) {
	s := ProposalStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown proposal status %q", raw)
	}
	return s, nil
}

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSubmitted, ProposalStatusReview,
		ProposalStatusApproved, ProposalStatusRejected, ProposalStatusRevision:
		return true
	}
	return false
}

// Editable reports whether the team may change the proposal body.
func (s ProposalStatus) Editable() bool {
	return s == ProposalStatusDraft || s == ProposalStatusRevision
}

// Reviewable reports whether the assigned reviewer may write a review.
func (s ProposalStatus) Reviewable() bool {
	return s == ProposalStatusSubmitted || s == ProposalStatusReview
}

// Terminal reports whether only an ADMIN override can move the proposal.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalStatusApproved || s == ProposalStatusRejected
}

// MemberRole is a user's peran within a proposal team.
type MemberRole string

const (
	MemberRoleChair  MemberRole = "KETUA"
	MemberRoleMember MemberRole = "ANGGOTA"
)

// Proposal is the central workflow entity.
type Proposal struct {
	ID          string         `db:"id" json:"id"`
	Judul       string         `db:"judul" json:"judul"`
	Abstrak     string         `db:"abstrak" json:"abstrak"`
	KataKunci   string         `db:"kata_kunci" json:"kata_kunci"`
	DanaUsulan  int64          `db:"dana_usulan" json:"dana_usulan"`
	Status      ProposalStatus `db:"status" json:"status"`
	KetuaID     string         `db:"ketua_id" json:"ketua_id"`
	ReviewerID  *string        `db:"reviewer_id" json:"reviewer_id,omitempty"`
	SkemaID     string         `db:"skema_id" json:"skema_id"`
	SubmittedAt *time.Time     `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Keywords splits KataKunci on commas, dropping blanks.
func (p *Proposal) Keywords() []string {
	parts := strings.Split(p.KataKunci, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if k := strings.TrimSpace(part); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// AssignedReviewer returns the reviewer id or "".
func (p *Proposal) AssignedReviewer() string {
	if p.ReviewerID == nil {
		return ""
	}
	return *p.ReviewerID
}

// ProposalMember links a user to a proposal team. The chair is never stored as an ANGGOTA row.
type ProposalMember struct {
	ProposalID string     `db:"proposal_id" json:"proposal_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	Peran      MemberRole `db:"peran" json:"peran"`
	FullName   string     `db:"full_name" json:"full_name,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// ProposalTransition describes a conditional status update.
type ProposalTransition struct {
	ProposalID string
	From       ProposalStatus
	To         ProposalStatus
	ReviewerID *string
	At         time.Time
}

// ProposalFilter narrows proposal listings. The visibility fields are OR-ed together.
type ProposalFilter struct {
	Status    *ProposalStatus
	SkemaID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string

	// ParticipantID restricts to proposals where the user chairs or is a member.
	ParticipantID string

	// AssignedReviewerID restricts to proposals assigned to the reviewer.
	AssignedReviewerID string

	// IncludeNonDraft additionally admits any proposal outside DRAFT.
	IncludeNonDraft bool
}
