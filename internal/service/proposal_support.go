package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

type proposalReader interface {
	FindByID(ctx context.Context, id string) (*models.Proposal, error)
	ListMembers(ctx context.Context, proposalID string) ([]models.ProposalMember, error)
}

// loadedProposal is a proposal with the team rows the policy needs.
type loadedProposal struct {
	Proposal *models.Proposal
	Members  []models.ProposalMember
	Resource workflow.ProposalResource
}

func (l *loadedProposal) teamIDs() []string {
	ids := make([]string, 0, len(l.Members)+1)
	ids = append(ids, l.Proposal.KetuaID)
	ids = append(ids, l.Resource.MemberIDs...)
	return ids
}

// requireActor rejects unauthenticated and inactive actors before anything is loaded.
func requireActor(actor workflow.Actor) error {
	d := workflow.Decide(actor, workflow.ActionRead, workflow.ProposalResource{})
	switch d.Reason {
	case workflow.ReasonUnauthenticated:
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	case workflow.ReasonInactive:
		return appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}
	return nil
}

// loadVisible loads a proposal the actor may see. Proposals outside the
// actor's visibility are reported as not found.
func loadVisible(ctx context.Context, r proposalReader, id string, actor workflow.Actor) (*loadedProposal, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "proposal not found", "failed to load proposal")
	}
	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load proposal members")
	}
	res := workflow.ResourceFor(p, members)
	if !workflow.CanSee(actor, res) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found")
	}
	return &loadedProposal{Proposal: p, Members: members, Resource: res}, nil
}

// transitionError turns a lost conditional update into a state conflict.
func transitionError(err error, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrStateConflict, "proposal status changed concurrently; reload and retry")
	}
	return appErrors.Internal(err, internal)
}

// capabilities evaluates every action for display purposes.
func capabilities(actor workflow.Actor, res workflow.ProposalResource) map[string]bool {
	actions := []workflow.Action{
		workflow.ActionEdit, workflow.ActionDelete, workflow.ActionSubmit, workflow.ActionManageMembers,
		workflow.ActionAssignReviewer, workflow.ActionReview, workflow.ActionOverride,
		workflow.ActionAttachDocument, workflow.ActionRemoveDocument,
	}
	machine := workflow.NewMachine()
	out := make(map[string]bool, len(actions))
	for _, a := range actions {
		allowed := workflow.Decide(actor, a, res).Allowed
		switch a {
		case workflow.ActionSubmit:
			allowed = allowed && machine.Transition(res.Status, models.ProposalStatusSubmitted, workflow.TriggerSubmit) == nil
		case workflow.ActionAssignReviewer:
			allowed = allowed && res.Status == models.ProposalStatusSubmitted
		case workflow.ActionReview:
			allowed = allowed && (actor.IsAdmin() || res.Status.Reviewable())
		}
		out[string(a)] = allowed
	}
	return out
}
