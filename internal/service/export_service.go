package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/workflow"
	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/export"
)

const exportPageSize = 100

type proposalLister interface {
	List(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, int, error)
}

type tableRenderer interface {
	Render(t export.Table) ([]byte, error)
}

// ExportFile is a rendered export ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders the ADMIN proposal recap.
type ExportService struct {
	proposals proposalLister
	schemes   schemeLookup
	audit     auditWriter
	csv       tableRenderer
	pdf       tableRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers use the package defaults.
func NewExportService(proposals proposalLister, schemes schemeLookup, audit auditWriter, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("P3M")
	}
	return &ExportService{
		proposals: proposals,
		schemes:   schemes,
		audit:     audit,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		now:       time.Now,
	}
}

// Recap renders every proposal matching q as CSV or PDF.
func (s *ExportService) Recap(ctx context.Context, actor workflow.Actor, q dto.ExportQuery, meta RequestMeta) (*ExportFile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only ADMIN can export proposals")
	}
	format := strings.ToLower(strings.TrimSpace(q.Format))
	if format == "" {
		format = "csv"
	}
	var renderer tableRenderer
	var contentType string
	switch format {
	case "csv":
		renderer, contentType = s.csv, "text/csv; charset=utf-8"
	case "pdf":
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid export", map[string]string{"format": "must be csv or pdf"})
	}

	filter := models.ProposalFilter{SkemaID: strings.TrimSpace(q.SkemaID), PageSize: exportPageSize, SortBy: "created_at", SortOrder: "asc"}
	if q.Status != "" {
		status, err := models.ParseProposalStatus(q.Status)
		if err != nil {
			return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid export", map[string]string{"status": err.Error()})
		}
		filter.Status = &status
	}
	proposals, err := s.collect(ctx, filter)
	if err != nil {
		return nil, err
	}

	table := s.recapTable(ctx, proposals)
	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	writeAudit(ctx, s.audit, s.logger, auditEntry{
		ActorID: actor.UserID, Action: models.AuditActionExport, Resource: "proposals",
		New: map[string]interface{}{"format": format, "status": q.Status, "skema_id": filter.SkemaID, "rows": len(proposals)},
	}, meta)
	return &ExportFile{
		Filename:    fmt.Sprintf("rekap_proposal_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Body:        body,
		Rows:        len(proposals),
	}, nil
}

func (s *ExportService) collect(ctx context.Context, filter models.ProposalFilter) ([]models.Proposal, error) {
	var all []models.Proposal
	for page := 1; ; page++ {
		filter.Page = page
		rows, total, err := s.proposals.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load proposals")
		}
		all = append(all, rows...)
		if len(rows) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

func (s *ExportService) recapTable(ctx context.Context, proposals []models.Proposal) export.Table {
	schemeNames := make(map[string]string)
	rows := make([]map[string]string, 0, len(proposals))
	for i, p := range proposals {
		name, ok := schemeNames[p.SkemaID]
		if !ok {
			name = p.SkemaID
			if scheme, err := s.schemes.Get(ctx, p.SkemaID); err == nil {
				name = fmt.Sprintf("%s - %s", scheme.Kode, scheme.Nama)
			}
			schemeNames[p.SkemaID] = name
		}
		rows = append(rows, map[string]string{
			"no":          strconv.Itoa(i + 1),
			"judul":       p.Judul,
			"skema":       name,
			"status":      string(p.Status),
			"dana_usulan": strconv.FormatInt(p.DanaUsulan, 10),
			"diajukan":    formatDate(p.SubmittedAt),
			"direview":    formatDate(p.ReviewedAt),
		})
	}
	return export.Table{
		Title: "Rekap Proposal P3M",
		Columns: []export.Column{
			{Key: "no", Title: "No", Width: 0.5},
			{Key: "judul", Title: "Judul", Width: 4},
			{Key: "skema", Title: "Skema", Width: 2},
			{Key: "status", Title: "Status"},
			{Key: "dana_usulan", Title: "Dana Usulan", Width: 1.5},
			{Key: "diajukan", Title: "Diajukan"},
			{Key: "direview", Title: "Direview"},
		},
		Rows: rows,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
