package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Column describes one field of a tabular export.
type Column struct {
	Key   string
	Title string
	// Width is the relative PDF column weight; zero means 1.
	Width float64
}

// Table is an ordered set of rows keyed by Column.Key.
type Table struct {
	Title   string
	Columns []Column
	Rows    []map[string]string
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("export requires at least one column")
	}
	return nil
}

// CSVExporter renders a Table as RFC 4180 CSV with a title header row.
type CSVExporter struct {
	// Comma overrides the separator; Excel in id-ID locales expects ';'.
	Comma rune
}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Comma: ','}
}

// Render writes the column titles followed by each row.
func (e *CSVExporter) Render(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Title
		if header[i] == "" {
			header[i] = col.Key
		}
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			record[i] = row[col.Key]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
