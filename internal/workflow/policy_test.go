package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

var (
	admin     = Actor{UserID: "admin", Role: models.RoleAdmin, Active: true}
	chair     = Actor{UserID: "chair", Role: models.RoleDosen, Active: true}
	member    = Actor{UserID: "member", Role: models.RoleMahasiswa, Active: true}
	outsider  = Actor{UserID: "outsider", Role: models.RoleDosen, Active: true}
	reviewer  = Actor{UserID: "rev", Role: models.RoleReviewer, Active: true}
	otherRev  = Actor{UserID: "rev-2", Role: models.RoleReviewer, Active: true}
	anonymous = Actor{}
)

func resourceIn(status models.ProposalStatus) ProposalResource {
	return ProposalResource{
		ChairID:    "chair",
		MemberIDs:  []string{"member"},
		ReviewerID: "rev",
		Status:     status,
	}
}

func TestDecideMatrix(t *testing.T) {
	tests := []struct {
		name   string
		actor  Actor
		action Action
		status models.ProposalStatus
		want   bool
		reason DenyReason
	}{
		{"admin overrides terminal", admin, ActionOverride, models.ProposalStatusApproved, true, ReasonNone},
		{"admin edits outside editable", admin, ActionEdit, models.ProposalStatusReview, true, ReasonNone},
		{"anonymous denied", anonymous, ActionRead, models.ProposalStatusSubmitted, false, ReasonUnauthenticated},
		{"inactive denied", Actor{UserID: "chair", Role: models.RoleDosen}, ActionRead, models.ProposalStatusDraft, false, ReasonInactive},
		{"inactive admin denied", Actor{UserID: "admin", Role: models.RoleAdmin}, ActionOverride, models.ProposalStatusDraft, false, ReasonInactive},

		{"chair edits draft", chair, ActionEdit, models.ProposalStatusDraft, true, ReasonNone},
		{"member edits revision", member, ActionEdit, models.ProposalStatusRevision, true, ReasonNone},
		{"chair locked in review", chair, ActionEdit, models.ProposalStatusReview, false, ReasonStatusLocked},
		{"member manages members in draft", member, ActionManageMembers, models.ProposalStatusDraft, true, ReasonNone},
		{"members locked after submit", chair, ActionManageMembers, models.ProposalStatusSubmitted, false, ReasonStatusLocked},
		{"team submits any status", member, ActionSubmit, models.ProposalStatusApproved, true, ReasonNone},
		{"chair deletes draft", chair, ActionDelete, models.ProposalStatusDraft, true, ReasonNone},
		{"member cannot delete", member, ActionDelete, models.ProposalStatusDraft, false, ReasonNotChair},
		{"chair cannot delete submitted", chair, ActionDelete, models.ProposalStatusSubmitted, false, ReasonStatusLocked},
		{"team attaches documents when terminal", member, ActionAttachDocument, models.ProposalStatusRejected, true, ReasonNone},
		{"team removes documents in review", chair, ActionRemoveDocument, models.ProposalStatusReview, true, ReasonNone},
		{"team cannot review", chair, ActionReview, models.ProposalStatusReview, false, ReasonRoleNotPermitted},
		{"team cannot assign", chair, ActionAssignReviewer, models.ProposalStatusSubmitted, false, ReasonRoleNotPermitted},
		{"team cannot override", chair, ActionOverride, models.ProposalStatusRejected, false, ReasonRoleNotPermitted},

		{"outsider reads submitted", outsider, ActionRead, models.ProposalStatusSubmitted, true, ReasonNone},
		{"outsider cannot read draft", outsider, ActionRead, models.ProposalStatusDraft, false, ReasonNotOnTeam},
		{"outsider cannot edit draft", outsider, ActionEdit, models.ProposalStatusDraft, false, ReasonNotOnTeam},
		{"outsider cannot edit revision", outsider, ActionManageMembers, models.ProposalStatusRevision, false, ReasonNotOnTeam},

		{"reviewer reads assigned", reviewer, ActionRead, models.ProposalStatusApproved, true, ReasonNone},
		{"reviewer reviews submitted", reviewer, ActionReview, models.ProposalStatusSubmitted, true, ReasonNone},
		{"reviewer reviews review", reviewer, ActionReview, models.ProposalStatusReview, true, ReasonNone},
		{"reviewer locked after approval", reviewer, ActionReview, models.ProposalStatusApproved, false, ReasonStatusLocked},
		{"reviewer locked after rejection", reviewer, ActionReview, models.ProposalStatusRejected, false, ReasonStatusLocked},
		{"reviewer locked in revision", reviewer, ActionReview, models.ProposalStatusRevision, false, ReasonStatusLocked},
		{"reviewer cannot edit body", reviewer, ActionEdit, models.ProposalStatusReview, false, ReasonRoleNotPermitted},
		{"other reviewer cannot read", otherRev, ActionRead, models.ProposalStatusReview, false, ReasonNotAssigned},
		{"other reviewer cannot review", otherRev, ActionReview, models.ProposalStatusReview, false, ReasonNotAssigned},

		{"lecturer creates", outsider, ActionCreate, "", true, ReasonNone},
		{"student creates", member, ActionCreate, "", true, ReasonNone},
		{"reviewer cannot create", reviewer, ActionCreate, "", false, ReasonRoleNotPermitted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(tc.actor, tc.action, resourceIn(tc.status))
			assert.Equal(t, tc.want, d.Allowed)
			assert.Equal(t, tc.reason, d.Reason, "reason %s", d.Reason)
		})
	}
}

func TestDecideUnassignedProposal(t *testing.T) {
	res := resourceIn(models.ProposalStatusSubmitted)
	res.ReviewerID = ""
	d := Decide(reviewer, ActionRead, res)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNotAssigned, d.Reason)
}

func TestAuthorizeErrorKinds(t *testing.T) {
	assert.NoError(t, Authorize(chair, ActionEdit, resourceIn(models.ProposalStatusDraft)))

	err := Authorize(outsider, ActionEdit, resourceIn(models.ProposalStatusDraft))
	assert.True(t, appErrors.IsForbidden(err))

	err = Authorize(anonymous, ActionRead, resourceIn(models.ProposalStatusDraft))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestResourceForSkipsChairRows(t *testing.T) {
	rev := "rev"
	p := &models.Proposal{KetuaID: "chair", ReviewerID: &rev, Status: models.ProposalStatusDraft}
	res := ResourceFor(p, []models.ProposalMember{
		{UserID: "chair", Peran: models.MemberRoleChair},
		{UserID: "member", Peran: models.MemberRoleMember},
	})
	assert.Equal(t, []string{"member"}, res.MemberIDs)
	assert.Equal(t, "rev", res.ReviewerID)
	assert.True(t, CanSee(member, res))
	assert.False(t, CanSee(outsider, res))
}
