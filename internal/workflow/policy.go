package workflow

import (
	"fmt"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// Action is a capability checked against a proposal.
type Action string

const (
	ActionRead           Action = "read"
	ActionCreate         Action = "create"
	ActionEdit           Action = "edit"
	ActionDelete         Action = "delete"
	ActionSubmit         Action = "submit"
	ActionManageMembers  Action = "manage_members"
	ActionAssignReviewer Action = "assign_reviewer"
	ActionReview         Action = "review"
	ActionOverride       Action = "override"
	ActionAttachDocument Action = "attach_document"
	ActionRemoveDocument Action = "remove_document"
)

// Actor is the acting user, built per request from verified token claims.
type Actor struct {
	UserID string
	Role   models.UserRole
	Active bool
}

// IsAdmin reports an active ADMIN.
func (a Actor) IsAdmin() bool {
	return a.Active && a.Role == models.RoleAdmin
}

// ProposalResource is the slice of proposal state the matrix needs.
type ProposalResource struct {
	ChairID    string
	MemberIDs  []string
	ReviewerID string
	Status     models.ProposalStatus
}

// ResourceFor projects a proposal and its member rows.
func ResourceFor(p *models.Proposal, members []models.ProposalMember) ProposalResource {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.Peran == models.MemberRoleMember {
			ids = append(ids, m.UserID)
		}
	}
	return ProposalResource{
		ChairID:    p.KetuaID,
		MemberIDs:  ids,
		ReviewerID: p.AssignedReviewer(),
		Status:     p.Status,
	}
}

func (r ProposalResource) isChair(userID string) bool {
	return userID != "" && r.ChairID == userID
}

func (r ProposalResource) onTeam(userID string) bool {
	if r.isChair(userID) {
		return true
	}
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DenyReason describes why a check failed.
type DenyReason int

const (
	ReasonNone DenyReason = iota
	ReasonUnauthenticated
	ReasonInactive
	ReasonRoleNotPermitted
	ReasonNotOnTeam
	ReasonNotChair
	ReasonNotAssigned
	ReasonStatusLocked
)

func (r DenyReason) String() string {
	switch r {
	case ReasonNone:
		return "allowed"
	case ReasonUnauthenticated:
		return "not authenticated"
	case ReasonInactive:
		return "account is inactive"
	case ReasonRoleNotPermitted:
		return "role may not perform this action"
	case ReasonNotOnTeam:
		return "not a member of the proposal team"
	case ReasonNotChair:
		return "only the proposal chair may do this"
	case ReasonNotAssigned:
		return "proposal is not assigned to this reviewer"
	case ReasonStatusLocked:
		return "proposal status does not allow this action"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a capability check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// Decide evaluates the authorization matrix. Rules apply in order:
// unauthenticated or inactive actors are denied, ADMIN is always allowed,
// then ownership and reviewer assignment decide, and everything else is denied.
func Decide(actor Actor, action Action, res ProposalResource) Decision {
	if actor.UserID == "" || !actor.Role.Valid() {
		return deny(ReasonUnauthenticated)
	}
	if !actor.Active {
		return deny(ReasonInactive)
	}
	if actor.Role == models.RoleAdmin {
		return allow()
	}

	switch action {
	case ActionCreate:
		if actor.Role == models.RoleDosen || actor.Role == models.RoleMahasiswa {
			return allow()
		}
		return deny(ReasonRoleNotPermitted)
	case ActionAssignReviewer, ActionOverride:
		return deny(ReasonRoleNotPermitted)
	}

	if actor.Role == models.RoleReviewer {
		return decideReviewer(actor, action, res)
	}

	if res.onTeam(actor.UserID) {
		return decideTeam(actor, action, res)
	}

	if action == ActionRead && res.Status != models.ProposalStatusDraft &&
		(actor.Role == models.RoleDosen || actor.Role == models.RoleMahasiswa) {
		return allow()
	}
	if action == ActionReview {
		return deny(ReasonRoleNotPermitted)
	}
	return deny(ReasonNotOnTeam)
}

func decideTeam(actor Actor, action Action, res ProposalResource) Decision {
	switch action {
	case ActionRead, ActionSubmit, ActionAttachDocument, ActionRemoveDocument:
		return allow()
	case ActionEdit, ActionManageMembers:
		if res.Status.Editable() {
			return allow()
		}
		return deny(ReasonStatusLocked)
	case ActionDelete:
		if !res.isChair(actor.UserID) {
			return deny(ReasonNotChair)
		}
		if res.Status != models.ProposalStatusDraft {
			return deny(ReasonStatusLocked)
		}
		return allow()
	}
	return deny(ReasonRoleNotPermitted)
}

func decideReviewer(actor Actor, action Action, res ProposalResource) Decision {
	if res.ReviewerID == "" || res.ReviewerID != actor.UserID {
		return deny(ReasonNotAssigned)
	}
	switch action {
	case ActionRead:
		return allow()
	case ActionReview:
		if res.Status.Reviewable() {
			return allow()
		}
		return deny(ReasonStatusLocked)
	}
	return deny(ReasonRoleNotPermitted)
}

// Authorize is Decide returning an *errors.Error suitable for the response envelope.
func Authorize(actor Actor, action Action, res ProposalResource) error {
	d := Decide(actor, action, res)
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonUnauthenticated {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not allowed to %s proposal: %s", action, d.Reason))
}

// CanSee reports whether the actor may learn the proposal exists. Invisible
// proposals are reported as not found instead of forbidden.
func CanSee(actor Actor, res ProposalResource) bool {
	return Decide(actor, ActionRead, res).Allowed
}
