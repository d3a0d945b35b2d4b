// Package report is S5, the ReportEmitter of spec.md §4.5: it turns a
// finished pipeline run into trade-detail and summary reports and hands each
// to whichever sinks are configured, and back-fills combined collateral
// balances into the user-balance store (BackfillCollateralBalances).
package report

import "context"

// Row is one report line: an ordered set of named columns. Using a slice of
// (name, value) pairs rather than a struct keeps the trade-detail and
// summary report shapes (which have different, hierarchy-dependent column
// sets per spec.md §4.5) expressible through one Sink interface, matching
// the "optional-netting-set-detail columns included only if used" rule.
type Row struct {
	Columns []Column
}

// Column is one named report cell.
type Column struct {
	Name  string
	Value string
}

// Report is a named, ordered collection of rows (one per report kind: trade
// detail, summary).
type Report struct {
	Name string
	Rows []Row
}

// Sink receives a finished report. Implementations decide how to persist or
// forward it (CSV file, S3/R2 archive upload, ...).
type Sink interface {
	Write(ctx context.Context, r Report) error
}
