package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

func TestMachineTransitionTable(t *testing.T) {
	m := NewMachine()
	allowed := map[Trigger][][2]models.ProposalStatus{
		TriggerSubmit: {
			{models.ProposalStatusDraft, models.ProposalStatusSubmitted},
			{models.ProposalStatusRevision, models.ProposalStatusSubmitted},
		},
		TriggerAssign: {
			{models.ProposalStatusSubmitted, models.ProposalStatusReview},
		},
		TriggerDecide: {
			{models.ProposalStatusReview, models.ProposalStatusApproved},
			{models.ProposalStatusReview, models.ProposalStatusRejected},
			{models.ProposalStatusReview, models.ProposalStatusRevision},
		},
	}

	for trigger, pairs := range allowed {
		ok := make(map[[2]models.ProposalStatus]bool)
		for _, p := range pairs {
			ok[p] = true
		}
		for _, from := range models.ProposalStatuses {
			for _, to := range models.ProposalStatuses {
				err := m.Transition(from, to, trigger)
				if ok[[2]models.ProposalStatus{from, to}] {
					assert.NoError(t, err, "%s %s->%s", trigger, from, to)
				} else {
					assert.True(t, appErrors.IsStateConflict(err), "%s %s->%s should conflict", trigger, from, to)
				}
			}
		}
	}
}

func TestMachineOverride(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Transition(models.ProposalStatusApproved, models.ProposalStatusDraft, TriggerOverride))
	require.NoError(t, m.Transition(models.ProposalStatusDraft, models.ProposalStatusApproved, TriggerOverride))

	err := m.Transition(models.ProposalStatusReview, models.ProposalStatusReview, TriggerOverride)
	assert.True(t, appErrors.IsStateConflict(err))

	err = m.Transition(models.ProposalStatusReview, models.ProposalStatus("ARCHIVED"), TriggerOverride)
	assert.True(t, appErrors.IsValidation(err))
}

func TestMachineTarget(t *testing.T) {
	m := NewMachine()
	to, err := m.Target(models.ProposalStatusRevision, TriggerSubmit)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusSubmitted, to)

	_, err = m.Target(models.ProposalStatusSubmitted, TriggerSubmit)
	assert.True(t, appErrors.IsStateConflict(err))

	_, err = m.Target(models.ProposalStatusReview, TriggerDecide)
	assert.True(t, appErrors.IsStateConflict(err))
}

func TestDecisionFor(t *testing.T) {
	cases := map[models.Recommendation]models.ProposalStatus{
		models.RecommendationAccept:   models.ProposalStatusApproved,
		models.RecommendationReject:   models.ProposalStatusRejected,
		models.RecommendationRevision: models.ProposalStatusRevision,
	}
	for rec, want := range cases {
		got, err := DecisionFor(rec)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := DecisionFor("MAYBE")
	assert.True(t, appErrors.IsValidation(err))
}

func TestParseProposalStatus(t *testing.T) {
	s, err := models.ParseProposalStatus(" revision ")
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusRevision, s)

	_, err = models.ParseProposalStatus("CLOSED")
	assert.Error(t, err)
}
