package dto

import "github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"

// CreateProposalRequest starts a DRAFT owned by the caller.
type CreateProposalRequest struct {
	Judul      string   `json:"judul" validate:"required,max=300"`
	Abstrak    string   `json:"abstrak"`
	KataKunci  string   `json:"kata_kunci" validate:"max=500"`
	DanaUsulan int64    `json:"dana_usulan" validate:"gte=0"`
	SkemaID    string   `json:"skema_id" validate:"required,uuid"`
	MemberIDs  []string `json:"member_ids"`
}

// UpdateProposalRequest edits the proposal body. Nil fields are left unchanged.
type UpdateProposalRequest struct {
	Judul      *string `json:"judul" validate:"omitempty,min=1,max=300"`
	Abstrak    *string `json:"abstrak"`
	KataKunci  *string `json:"kata_kunci" validate:"omitempty,max=500"`
	DanaUsulan *int64  `json:"dana_usulan" validate:"omitempty,gte=0"`
	SkemaID    *string `json:"skema_id" validate:"omitempty,uuid"`
}

// UpdateMembersRequest replaces the ANGGOTA list.
type UpdateMembersRequest struct {
	MemberIDs []string `json:"member_ids"`
}

// AssignReviewerRequest selects the reviewer for a SUBMITTED proposal.
type AssignReviewerRequest struct {
	ReviewerID string `json:"reviewer_id" validate:"required,uuid"`
}

// OverrideStatusRequest forces a status. ADMIN only.
type OverrideStatusRequest struct {
	Status models.ProposalStatus `json:"status" validate:"required"`
	Reason string                `json:"reason" validate:"required,min=5,max=500"`
}

// ProposalQuery mirrors supported listing filters.
type ProposalQuery struct {
	Status    string `form:"status"`
	SkemaID   string `form:"skema_id"`
	Search    string `form:"q"`
	Mine      bool   `form:"mine"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}

// ProposalDetail is a proposal with its team, scheme and review summary.
type ProposalDetail struct {
	models.Proposal
	Members []models.ProposalMember `json:"members"`
	Scheme  *models.Scheme          `json:"scheme,omitempty"`
	Reviews models.ReviewSummary    `json:"reviews"`
	// Capabilities lets the client hide controls; the server still checks every call.
	Capabilities map[string]bool `json:"capabilities"`
}

// ExportQuery selects the proposals of a recap export.
type ExportQuery struct {
	Format  string `form:"format"`
	Status  string `form:"status"`
	SkemaID string `form:"skema_id"`
}
