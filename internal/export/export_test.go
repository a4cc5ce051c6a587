package export

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"relbench/internal/analysis"
	"relbench/internal/compare"
	"relbench/internal/eval"
	"relbench/internal/relation"
	"relbench/internal/slogutil"
)

func sampleResult() *compare.Result {
	return compare.Compare([]relation.Labeled{
		{Label: "A", Relations: relation.Sequence{"x->y", "y->z", "a->b"}},
		{Label: "B", Relations: relation.Sequence{"x->y", "y->z", "c->d", "e->f"}},
		{Label: "C", Relations: relation.Sequence{"x->y"}},
	})
}

func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s) error = %v", sheet, err)
	}
	return rows
}

func TestUniqueColumns(t *testing.T) {
	got := UniqueColumns(sampleResult())
	want := [][]string{
		{"A", "B", "C"},
		{"a->b", "c->d", ""},
		{"", "e->f", ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueColumns() = %v, want %v", got, want)
	}
	if UniqueColumns(compare.Compare(nil)) != nil {
		t.Error("UniqueColumns() of an empty result should be nil")
	}
}

func TestExporter_Comparison(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.xlsx")
	e := NewExporter(slogutil.NewDiscardLogger())

	err := e.Comparison(path, Comparison{
		Project: "demo",
		Level:   "class",
		Result:  sampleResult(),
		Excluded: []analysis.Exclusion{
			{Tool: "pyan", Display: "Pyan", Reason: analysis.ReasonUnsupportedLevel},
		},
		IncludeUnique: true,
	})
	if err != nil {
		t.Fatalf("Comparison() error = %v", err)
	}

	summary := readSheet(t, path, SheetSummary)
	wantSummary := [][]string{
		{"Tool", "Total", "Unique"},
		{"A", "3", "1"},
		{"B", "4", "2"},
		{"C", "1", "0"},
		{"Shared", "1"},
		{"Union", "5"},
		{"Project", "demo"},
		{"Level", "class"},
	}
	if !reflect.DeepEqual(summary, wantSummary) {
		t.Errorf("Summary sheet = %v, want %v", summary, wantSummary)
	}

	histogram := readSheet(t, path, SheetHistogram)
	if !reflect.DeepEqual(histogram, [][]string{{"Tools", "Relations"}, {"2", "1"}}) {
		t.Errorf("Histogram sheet = %v", histogram)
	}

	overlaps := readSheet(t, path, SheetOverlaps)
	if len(overlaps) != 4 {
		t.Errorf("Overlaps sheet has %d rows, want header plus 3 pairs", len(overlaps))
	}

	excluded := readSheet(t, path, SheetExcluded)
	if len(excluded) != 2 || excluded[1][0] != "Pyan" || excluded[1][1] != "unsupported_level" {
		t.Errorf("Excluded sheet = %v", excluded)
	}

	unique := readSheet(t, path, SheetUnique)
	if len(unique) != 3 || unique[2][1] != "e->f" {
		t.Errorf("Unique sheet = %v", unique)
	}
}

func TestExporter_Precision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precision.xlsx")
	e := NewExporter(slogutil.NewDiscardLogger())

	report := &eval.Report{
		Suite:        "suite",
		Mode:         eval.ModePooled,
		Coverage:     eval.Coverage{Total: 2, Covered: 1, NotCovered: 1},
		PooledCounts: eval.Counts{TP: 1, FP: 1, FN: 1},
		Pooled:       eval.Metrics{Precision: 0.5, Recall: 0.5, Units: 2},
		Features: []eval.FeatureResult{
			{Name: "args", Coverage: eval.Coverage{Total: 2, Covered: 1}},
		},
		Units: []eval.UnitResult{
			{Feature: "args", Category: "call", Edges: 2, Found: 1, Counts: eval.Counts{TP: 1, FP: 1, FN: 1}, Precision: 0.5, Recall: 0.5},
		},
		Mismatches: []eval.Mismatch{{Feature: "args", Category: "call", Source: "main.f", Target: "main.g"}},
	}
	if err := e.Precision(path, report); err != nil {
		t.Fatalf("Precision() error = %v", err)
	}

	summary := readSheet(t, path, SheetSummary)
	found := map[string]string{}
	for _, row := range summary[1:] {
		if len(row) == 2 {
			found[row[0]] = row[1]
		}
	}
	if found["Pooled precision"] != "0.5" || found["TP"] != "1" {
		t.Errorf("Summary sheet = %v", summary)
	}
	if _, ok := found["Averaged precision"]; ok {
		t.Error("pooled-only workbook contains averaged metrics")
	}

	mismatches := readSheet(t, path, SheetMismatches)
	if !reflect.DeepEqual(mismatches[1], []string{"args", "call", "main.f", "main.g"}) {
		t.Errorf("Mismatches sheet = %v", mismatches)
	}
}
