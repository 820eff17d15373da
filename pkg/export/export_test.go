package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Title: "Rekap Proposal",
		Columns: []Column{
			{Key: "judul", Title: "Judul", Width: 3},
			{Key: "status", Title: "Status"},
		},
		Rows: []map[string]string{
			{"judul": "Sensor kualitas air, \"tahap 1\"", "status": "SUBMITTED"},
			{"judul": "Aplikasi desa", "status": "DRAFT"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleTable())
	require.NoError(t, err)
	require.Equal(t, "Judul,Status\n\"Sensor kualitas air, \"\"tahap 1\"\"\",SUBMITTED\nAplikasi desa,DRAFT\n", string(out))

	_, err = NewCSVExporter().Render(Table{})
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter("P3M Politeknik Negeri Manado").Render(sampleTable())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleTable().Columns)
	require.InDelta(t, pdfPageWidth*0.75, widths[0], 0.001)
	require.InDelta(t, pdfPageWidth*0.25, widths[1], 0.001)
}
