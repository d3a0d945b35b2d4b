package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVSink writes a report as a CSV file under Dir, named "<report-name>.csv".
// Column sets may vary row to row (the summary report's hierarchy means
// netting-set rows carry more columns than hedging-set rows, matching
// spec.md §4.5's "optional columns included only if used"); the sink unions
// every column name it sees, in first-seen order, and leaves a cell blank
// for rows that didn't populate that column.
type CSVSink struct {
	Dir string
}

// NewCSVSink constructs a sink writing into dir.
func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{Dir: dir}
}

func (s *CSVSink) Write(ctx context.Context, r Report) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("csv sink: create dir: %w", err)
	}

	header, colIndex := unionColumns(r.Rows)

	path := filepath.Join(s.Dir, r.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv sink: create file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv sink: write header: %w", err)
	}

	for _, row := range r.Rows {
		rec := make([]string, len(header))
		for _, c := range row.Columns {
			rec[colIndex[c.Name]] = c.Value
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("csv sink: write row: %w", err)
		}
	}

	return w.Error()
}

func unionColumns(rows []Row) (header []string, index map[string]int) {
	index = make(map[string]int)
	for _, row := range rows {
		for _, c := range row.Columns {
			if _, ok := index[c.Name]; !ok {
				index[c.Name] = len(header)
				header = append(header, c.Name)
			}
		}
	}
	return header, index
}
