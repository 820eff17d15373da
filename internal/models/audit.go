package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionTokenRefresh   = "TOKEN_REFRESH"
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"

	AuditActionSchemeCreate = "SCHEME_CREATE"
	AuditActionSchemeUpdate = "SCHEME_UPDATE"
	AuditActionSchemeDelete = "SCHEME_DELETE"

	AuditActionProposalCreate         = "PROPOSAL_CREATE"
	AuditActionProposalUpdate         = "PROPOSAL_UPDATE"
	AuditActionProposalDelete         = "PROPOSAL_DELETE"
	AuditActionProposalSubmit         = "PROPOSAL_SUBMIT"
	AuditActionProposalAssignReviewer = "PROPOSAL_ASSIGN_REVIEWER"
	AuditActionProposalMembers        = "PROPOSAL_MEMBERS_UPDATE"
	AuditActionProposalDecision       = "PROPOSAL_DECISION"
	AuditActionProposalOverride       = "PROPOSAL_OVERRIDE"

	AuditActionReviewRecord = "REVIEW_RECORD"

	AuditActionDocumentUpload   = "DOCUMENT_UPLOAD"
	AuditActionDocumentDelete   = "DOCUMENT_DELETE"
	AuditActionDocumentDownload = "DOCUMENT_DOWNLOAD"

	AuditActionAnnouncementCreate = "ANNOUNCEMENT_CREATE"
	AuditActionAnnouncementUpdate = "ANNOUNCEMENT_UPDATE"
	AuditActionAnnouncementDelete = "ANNOUNCEMENT_DELETE"

	AuditActionExport = "EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
