package workflow

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// SubmissionRules are the preconditions for DRAFT->SUBMITTED and REVISION->SUBMITTED.
type SubmissionRules struct {
	MinAbstractLength int
	// Location decides which calendar day "now" falls on. Defaults to UTC.
	Location *time.Location
}

// Check collects every failed precondition into one validation error.
// teamSize counts the chair.
func (r SubmissionRules) Check(p *models.Proposal, scheme *models.Scheme, teamSize int, now time.Time) error {
	fields := make(map[string]string)

	if strings.TrimSpace(p.Judul) == "" {
		fields["judul"] = "title is required"
	}
	abstract := strings.TrimSpace(p.Abstrak)
	if abstract == "" {
		fields["abstrak"] = "abstract is required"
	} else if n := utf8.RuneCountInString(abstract); n < r.MinAbstractLength {
		fields["abstrak"] = fmt.Sprintf("abstract must be at least %d characters, got %d", r.MinAbstractLength, n)
	}
	if len(p.Keywords()) == 0 {
		fields["kata_kunci"] = "at least one keyword is required"
	}

	if scheme == nil || strings.TrimSpace(p.SkemaID) == "" {
		fields["skema_id"] = "scheme is required"
	} else {
		if scheme.Status != models.SchemeStatusActive {
			fields["skema_id"] = fmt.Sprintf("scheme %s is %s", scheme.Kode, scheme.Status)
		} else if !r.withinWindow(scheme, now) {
			fields["skema_id"] = fmt.Sprintf("scheme %s accepts submissions from %s to %s",
				scheme.Kode, scheme.TanggalBuka.Format("2006-01-02"), scheme.TanggalTutup.Format("2006-01-02"))
		}
		if p.DanaUsulan < scheme.DanaMin || p.DanaUsulan > scheme.DanaMax {
			fields["dana_usulan"] = fmt.Sprintf("proposed funding must be between %d and %d", scheme.DanaMin, scheme.DanaMax)
		}
		if scheme.BatasAnggota > 0 && teamSize > scheme.BatasAnggota {
			fields["members"] = fmt.Sprintf("team size %d exceeds scheme limit of %d", teamSize, scheme.BatasAnggota)
		}
	}

	if len(fields) > 0 {
		return appErrors.WithFields(appErrors.ErrValidation, "proposal is not ready for submission", fields)
	}
	return nil
}

// withinWindow compares whole calendar days, both bounds inclusive.
func (r SubmissionRules) withinWindow(s *models.Scheme, now time.Time) bool {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	today := dayNumber(now.In(loc))
	return dayNumber(s.TanggalBuka) <= today && today <= dayNumber(s.TanggalTutup)
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
