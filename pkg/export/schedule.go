package export

import (
	"errors"
	"fmt"
	"time"
)

var errNoColumns = errors.New("schedule has no columns")

// Column is one table column. Width is a relative weight used to lay out PDF
// pages; zero takes the average of the weighted columns.
type Column struct {
	Title string
	Width float64
}

// Schedule is a dated table of lessons covering an optional period.
type Schedule struct {
	Title   string
	From    *time.Time
	To      *time.Time
	Columns []Column
	Rows    [][]string
}

// Period describes the covered date range.
func (s Schedule) Period() string {
	const layout = "2006-01-02"
	switch {
	case s.From != nil && s.To != nil:
		return s.From.Format(layout) + " to " + s.To.Format(layout)
	case s.From != nil:
		return "from " + s.From.Format(layout)
	case s.To != nil:
		return "until " + s.To.Format(layout)
	}
	return "all dates"
}

func (s Schedule) validate() error {
	if len(s.Columns) == 0 {
		return errNoColumns
	}
	for i, row := range s.Rows {
		if len(row) != len(s.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(s.Columns))
		}
	}
	return nil
}

// columnWidths shares total across columns in proportion to their weights.
func columnWidths(cols []Column, total float64) []float64 {
	var sum float64
	weighted := 0
	for _, col := range cols {
		if col.Width > 0 {
			sum += col.Width
			weighted++
		}
	}
	fallback := 1.0
	if weighted > 0 {
		fallback = sum / float64(weighted)
	}

	weights := make([]float64, len(cols))
	sum = 0
	for i, col := range cols {
		weights[i] = col.Width
		if weights[i] <= 0 {
			weights[i] = fallback
		}
		sum += weights[i]
	}
	for i := range weights {
		weights[i] = total * weights[i] / sum
	}
	return weights
}
