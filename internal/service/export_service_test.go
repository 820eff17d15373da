package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// pagedProposals serves n proposals in pages of filter.PageSize.
type pagedProposals struct {
	n       int
	filters []models.ProposalFilter
}

func (p *pagedProposals) List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error) {
	p.filters = append(p.filters, filter)
	start := (filter.Page - 1) * filter.PageSize
	var out []models.Proposal
	for i := start; i < p.n && i < start+filter.PageSize; i++ {
		out = append(out, models.Proposal{
			ID: fmt.Sprintf("p-%d", i), Judul: fmt.Sprintf("Proposal %d", i),
			Status: models.ProposalStatusSubmitted, SkemaID: testSchemeID, DanaUsulan: 5_000_000,
		})
	}
	return out, p.n, nil
}

func TestExportRecapPagesThroughAllProposals(t *testing.T) {
	f := newWorkflowFixture(t)
	f.dir.schemes[testSchemeID].Nama = "Penelitian Dosen Pemula"
	source := &pagedProposals{n: 230}
	svc := NewExportService(source, f.dir, f.dir, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	file, err := svc.Recap(context.Background(), f.admin, dto.ExportQuery{Status: "submitted"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 230, file.Rows)
	assert.Len(t, source.filters, 3)
	require.NotNil(t, source.filters[0].Status)
	assert.Equal(t, "rekap_proposal_20260301_080000.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	assert.Contains(t, string(file.Body), "PDP - Penelitian Dosen Pemula")
	assert.Contains(t, f.dir.auditActions(), models.AuditActionExport)
}

func TestExportRecapPDF(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewExportService(&pagedProposals{n: 3}, f.dir, f.dir, nil, nil, nil)

	file, err := svc.Recap(context.Background(), f.admin, dto.ExportQuery{Format: "PDF"}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestExportRecapRejects(t *testing.T) {
	f := newWorkflowFixture(t)
	svc := NewExportService(&pagedProposals{}, f.dir, f.dir, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Recap(ctx, f.chair, dto.ExportQuery{}, RequestMeta{})
	assert.True(t, appErrors.IsForbidden(err))

	_, err = svc.Recap(ctx, f.admin, dto.ExportQuery{Format: "xlsx"}, RequestMeta{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Recap(ctx, f.admin, dto.ExportQuery{Status: "ARCHIVED"}, RequestMeta{})
	assert.True(t, appErrors.IsValidation(err))
}
