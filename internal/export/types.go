// Package export writes comparison and evaluation results to spreadsheet
// workbooks for review outside the terminal.
package export

import (
	"relbench/internal/analysis"
	"relbench/internal/compare"
)

// Sheet names used in exported workbooks.
const (
	SheetSummary    = "Summary"
	SheetHistogram  = "Histogram"
	SheetOverlaps   = "Overlaps"
	SheetUnique     = "Unique"
	SheetExcluded   = "Excluded"
	SheetFeatures   = "Features"
	SheetUnits      = "Units"
	SheetMismatches = "Mismatches"
)

// Comparison is everything a comparison workbook shows.
type Comparison struct {
	Project  string
	Level    string
	Result   *compare.Result
	Excluded []analysis.Exclusion

	// IncludeUnique adds a sheet listing every unique relation per tool.
	IncludeUnique bool
}
