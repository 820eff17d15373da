package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

func openScheme() *models.Scheme {
	return &models.Scheme{
		ID:           "skema-1",
		Kode:         "PDP-2024",
		Status:       models.SchemeStatusActive,
		DanaMin:      2_000_000,
		DanaMax:      10_000_000,
		BatasAnggota: 5,
		TanggalBuka:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		TanggalTutup: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func readyProposal() *models.Proposal {
	return &models.Proposal{
		Judul:      "Sistem monitoring kualitas air berbasis IoT",
		Abstrak:    strings.Repeat("a", 120),
		KataKunci:  "iot, air",
		DanaUsulan: 7_500_000,
		SkemaID:    "skema-1",
	}
}

var rules = SubmissionRules{MinAbstractLength: 100}

func TestSubmissionWithinBounds(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, rules.Check(readyProposal(), openScheme(), 3, now))
}

func TestSubmissionFundingOutsideBounds(t *testing.T) {
	p := readyProposal()
	p.DanaUsulan = 15_000_000
	err := rules.Check(p, openScheme(), 1, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, appErrors.IsValidation(err))
	assert.Contains(t, appErrors.FromError(err).Fields, "dana_usulan")
}

func TestSubmissionWindowIsInclusive(t *testing.T) {
	s := openScheme()
	require.NoError(t, rules.Check(readyProposal(), s, 1, time.Date(2024, 3, 1, 0, 0, 1, 0, time.UTC)))
	require.NoError(t, rules.Check(readyProposal(), s, 1, time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))

	err := rules.Check(readyProposal(), s, 1, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, appErrors.FromError(err).Fields, "skema_id")
}

func TestSubmissionWindowUsesLocation(t *testing.T) {
	wita := time.FixedZone("WITA", 8*3600)
	r := SubmissionRules{MinAbstractLength: 100, Location: wita}
	// 2024-03-31 17:00 UTC is already 1 April in WITA.
	err := r.Check(readyProposal(), openScheme(), 1, time.Date(2024, 3, 31, 17, 0, 0, 0, time.UTC))
	assert.True(t, appErrors.IsValidation(err))
}

func TestSubmissionCollectsAllFailures(t *testing.T) {
	s := openScheme()
	s.Status = models.SchemeStatusInactive
	p := &models.Proposal{Abstrak: "terlalu pendek", SkemaID: "skema-1", DanaUsulan: 1}

	err := rules.Check(p, s, 6, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, appErrors.IsValidation(err))
	fields := appErrors.FromError(err).Fields
	for _, key := range []string{"judul", "abstrak", "kata_kunci", "skema_id", "dana_usulan", "members"} {
		assert.Contains(t, fields, key)
	}
}

func TestSubmissionWithoutScheme(t *testing.T) {
	p := readyProposal()
	p.SkemaID = ""
	err := rules.Check(p, nil, 1, time.Now())
	assert.Equal(t, "scheme is required", appErrors.FromError(err).Fields["skema_id"])
}
