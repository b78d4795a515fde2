package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter writes a schedule as a header line followed by one record per row.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the schedule table. Title and period are left to the filename.
func (e *CSVExporter) Render(doc Schedule) ([]byte, error) {
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	titles := make([]string, len(doc.Columns))
	for i, col := range doc.Columns {
		titles[i] = col.Title
	}
	if err := writer.Write(titles); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(doc.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
