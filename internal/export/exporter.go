package export

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"relbench/internal/eval"
)

// Exporter writes result workbooks.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// workbook appends rows to named sheets of one file.
type workbook struct {
	f      *excelize.File
	header int
	rows   map[string]int
	first  bool
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &workbook{f: f, header: header, rows: make(map[string]int), first: true}, nil
}

// sheet creates a sheet with a bold header row. The first sheet reuses the
// default one excelize creates.
func (w *workbook) sheet(name string, header ...interface{}) error {
	if w.first {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
		w.first = false
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	if err := w.append(name, header...); err != nil {
		return err
	}
	return w.f.SetRowStyle(name, 1, 1, w.header)
}

func (w *workbook) append(name string, values ...interface{}) error {
	w.rows[name]++
	cell, err := excelize.CoordinatesToCellName(1, w.rows[name])
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(name, cell, &values)
}

func (w *workbook) save(path string) error {
	w.f.SetActiveSheet(0)
	if err := w.f.SaveAs(path); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return w.f.Close()
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// Comparison writes a comparison workbook to path.
func (e *Exporter) Comparison(path string, c Comparison) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}
	summary := c.Result.Summarize(true)

	steps := []func() error{
		func() error {
			if err := w.sheet(SheetSummary, "Tool", "Total", "Unique"); err != nil {
				return err
			}
			for _, t := range summary.Tools {
				if err := w.append(SheetSummary, t.Label, t.Total, t.Unique); err != nil {
					return err
				}
			}
			if err := w.append(SheetSummary, "Shared", summary.Shared); err != nil {
				return err
			}
			if err := w.append(SheetSummary, "Union", summary.Union); err != nil {
				return err
			}
			if err := w.append(SheetSummary, "Project", c.Project); err != nil {
				return err
			}
			return w.append(SheetSummary, "Level", c.Level)
		},
		func() error {
			if err := w.sheet(SheetHistogram, "Tools", "Relations"); err != nil {
				return err
			}
			for _, b := range summary.Histogram {
				if err := w.append(SheetHistogram, b.Multiplicity, b.Count); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			if err := w.sheet(SheetOverlaps, "Left", "Right", "Intersection", "Union", "Jaccard"); err != nil {
				return err
			}
			for _, o := range summary.Overlaps {
				if err := w.append(SheetOverlaps, o.Left, o.Right, o.Intersection, o.Union, o.Jaccard); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			if err := w.sheet(SheetExcluded, "Tool", "Reason", "Detail"); err != nil {
				return err
			}
			for _, x := range c.Excluded {
				if err := w.append(SheetExcluded, x.Display, string(x.Reason), x.Detail); err != nil {
					return err
				}
			}
			return nil
		},
	}
	if c.IncludeUnique {
		steps = append(steps, func() error {
			rows := UniqueColumns(c.Result)
			if len(rows) == 0 {
				return w.sheet(SheetUnique)
			}
			if err := w.sheet(SheetUnique, toRow(rows[0])...); err != nil {
				return err
			}
			for _, row := range rows[1:] {
				if err := w.append(SheetUnique, toRow(row)...); err != nil {
					return err
				}
			}
			return nil
		})
	}

	for _, step := range steps {
		if err := step(); err != nil {
			_ = w.f.Close()
			return fmt.Errorf("failed to build comparison workbook: %w", err)
		}
	}

	e.logger.Debug("Writing comparison workbook", "path", path, "tools", len(summary.Tools))
	return w.save(path)
}

// Precision writes a precision/recall workbook to path.
func (e *Exporter) Precision(path string, r *eval.Report) error {
	w, err := newWorkbook()
	if err != nil {
		return err
	}

	steps := []func() error{
		func() error {
			if err := w.sheet(SheetSummary, "Metric", "Value"); err != nil {
				return err
			}
			rows := [][]interface{}{
				{"Suite", r.Suite},
				{"Mode", string(r.Mode)},
				{"Categories", r.Coverage.Total},
				{"Covered", r.Coverage.Covered},
				{"Not covered", r.Coverage.NotCovered},
			}
			if r.Mode.Includes(eval.ModePooled) {
				rows = append(rows,
					[]interface{}{"Pooled precision", r.Pooled.Precision},
					[]interface{}{"Pooled recall", r.Pooled.Recall},
					[]interface{}{"TP", r.PooledCounts.TP},
					[]interface{}{"FP", r.PooledCounts.FP},
					[]interface{}{"FN", r.PooledCounts.FN},
				)
			}
			if r.Mode.Includes(eval.ModeAveraged) {
				rows = append(rows,
					[]interface{}{"Averaged precision", r.Averaged.Precision},
					[]interface{}{"Averaged recall", r.Averaged.Recall},
					[]interface{}{"Units", r.Averaged.Units},
				)
			}
			for _, row := range rows {
				if err := w.append(SheetSummary, row...); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			if err := w.sheet(SheetFeatures, "Feature", "Categories", "Covered",
				"Pooled P", "Pooled R", "Averaged P", "Averaged R"); err != nil {
				return err
			}
			for _, f := range r.Features {
				if err := w.append(SheetFeatures, f.Name, f.Coverage.Total, f.Coverage.Covered,
					f.Pooled.Precision, f.Pooled.Recall, f.Averaged.Precision, f.Averaged.Recall); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			if err := w.sheet(SheetUnits, "Feature", "Category", "Edges", "Found",
				"TP", "FP", "FN", "Precision", "Recall"); err != nil {
				return err
			}
			for _, u := range r.Units {
				if err := w.append(SheetUnits, u.Feature, u.Category, u.Edges, u.Found,
					u.Counts.TP, u.Counts.FP, u.Counts.FN, u.Precision, u.Recall); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			if err := w.sheet(SheetMismatches, "Feature", "Category", "Source", "Target"); err != nil {
				return err
			}
			for _, m := range r.Mismatches {
				if err := w.append(SheetMismatches, m.Feature, m.Category, m.Source, m.Target); err != nil {
					return err
				}
			}
			return nil
		},
	}

	for _, step := range steps {
		if err := step(); err != nil {
			_ = w.f.Close()
			return fmt.Errorf("failed to build precision workbook: %w", err)
		}
	}

	e.logger.Debug("Writing precision workbook", "path", path, "units", len(r.Units))
	return w.save(path)
}
