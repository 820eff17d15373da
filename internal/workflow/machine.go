// Package workflow holds the proposal lifecycle rules: the status machine,
// the role authorization matrix, team membership invariants, submission
// preconditions and review aggregation. Everything here is pure; callers
// load state, ask the rules, then persist with a conditional update.
package workflow

import (
	"fmt"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// Trigger is the lifecycle action that causes a transition.
type Trigger string

const (
	TriggerSubmit   Trigger = "SUBMIT"
	TriggerAssign   Trigger = "ASSIGN_REVIEWER"
	TriggerDecide   Trigger = "DECIDE"
	TriggerOverride Trigger = "OVERRIDE"
)

type edge struct {
	from models.ProposalStatus
	to   models.ProposalStatus
}

// Machine validates proposal status transitions against a fixed table.
type Machine struct {
	edges map[Trigger]map[edge]struct{}
}

// NewMachine builds the standard lifecycle:
// DRAFT -> SUBMITTED -> REVIEW -> {APPROVED, REJECTED, REVISION}, REVISION -> SUBMITTED.
func NewMachine() *Machine {
	m := &Machine{edges: make(map[Trigger]map[edge]struct{})}
	m.allow(TriggerSubmit, models.ProposalStatusDraft, models.ProposalStatusSubmitted)
	m.allow(TriggerSubmit, models.ProposalStatusRevision, models.ProposalStatusSubmitted)
	m.allow(TriggerAssign, models.ProposalStatusSubmitted, models.ProposalStatusReview)
	m.allow(TriggerDecide, models.ProposalStatusReview, models.ProposalStatusApproved)
	m.allow(TriggerDecide, models.ProposalStatusReview, models.ProposalStatusRejected)
	m.allow(TriggerDecide, models.ProposalStatusReview, models.ProposalStatusRevision)
	return m
}

func (m *Machine) allow(t Trigger, from, to models.ProposalStatus) {
	if m.edges[t] == nil {
		m.edges[t] = make(map[edge]struct{})
	}
	m.edges[t][edge{from: from, to: to}] = struct{}{}
}

// Transition returns nil when trigger may move a proposal from -> to.
// Override accepts any pair of distinct valid statuses.
func (m *Machine) Transition(from, to models.ProposalStatus, trigger Trigger) error {
	if !from.Valid() || !to.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown proposal status %q -> %q", from, to))
	}
	if trigger == TriggerOverride {
		if from == to {
			return appErrors.Clone(appErrors.ErrStateConflict, fmt.Sprintf("proposal is already %s", to))
		}
		return nil
	}
	if _, ok := m.edges[trigger][edge{from: from, to: to}]; ok {
		return nil
	}
	return appErrors.Clone(appErrors.ErrStateConflict,
		fmt.Sprintf("cannot %s: proposal status %s does not allow transition to %s", describe(trigger), from, to))
}

// Target returns the single status trigger leads to from from, when the
// table has exactly one. Decide needs a recommendation and is never resolved here.
func (m *Machine) Target(from models.ProposalStatus, trigger Trigger) (models.ProposalStatus, error) {
	var found []models.ProposalStatus
	for e := range m.edges[trigger] {
		if e.from == from {
			found = append(found, e.to)
		}
	}
	if len(found) != 1 {
		return "", appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot %s: proposal status %s does not allow it", describe(trigger), from))
	}
	return found[0], nil
}

// DecisionFor maps a recommendation to the status it decides.
func DecisionFor(rec models.Recommendation) (models.ProposalStatus, error) {
	switch rec {
	case models.RecommendationAccept:
		return models.ProposalStatusApproved, nil
	case models.RecommendationReject:
		return models.ProposalStatusRejected, nil
	case models.RecommendationRevision:
		return models.ProposalStatusRevision, nil
	}
	return "", appErrors.WithFields(appErrors.ErrValidation, "invalid recommendation",
		map[string]string{"rekomendasi": "must be one of LAYAK, TIDAK_LAYAK, REVISI"})
}

func describe(t Trigger) string {
	switch t {
	case TriggerSubmit:
		return "submit"
	case TriggerAssign:
		return "assign reviewer"
	case TriggerDecide:
		return "record decision"
	case TriggerOverride:
		return "override"
	}
	return string(t)
}
