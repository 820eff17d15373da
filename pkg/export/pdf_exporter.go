package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth = 277.0 // A4 landscape minus margins
	pdfRowHeight = 7.0
)

// PDFExporter renders a Table as a landscape A4 report.
type PDFExporter struct {
	Institution string
	now         func() time.Time
}

func NewPDFExporter(institution string) *PDFExporter {
	return &PDFExporter{Institution: institution, now: time.Now}
}

// Render draws the title block, a repeated header row and the body.
func (e *PDFExporter) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	widths := columnWidths(t.Columns)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, col := range t.Columns {
			title := col.Title
			if title == "" {
				title = col.Key
			}
			pdf.CellFormat(widths[i], 8, tr(title), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("Halaman %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	if e.Institution != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, tr(e.Institution), "", 1, "C", false, 0, "")
	}
	if t.Title != "" {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(t.Title), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, "Dicetak: "+e.now().Format("02-01-2006 15:04"), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, col := range t.Columns {
			cell := truncate(pdf, tr(row[col.Key]), widths[i]-2)
			pdf.CellFormat(widths[i], pdfRowHeight, cell, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(cols []Column) []float64 {
	total := 0.0
	for _, c := range cols {
		total += weight(c)
	}
	widths := make([]float64, len(cols))
	for i, c := range cols {
		widths[i] = pdfPageWidth * weight(c) / total
	}
	return widths
}

func weight(c Column) float64 {
	if c.Width <= 0 {
		return 1
	}
	return c.Width
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
