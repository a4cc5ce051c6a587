package eval

import (
	"fmt"
	"strings"

	"relbench/internal/relation"
)

// UnitResult is the score of one category.
type UnitResult struct {
	Feature   string  `json:"feature" yaml:"feature" toml:"feature"`
	Category  string  `json:"category" yaml:"category" toml:"category"`
	Edges     int     `json:"edges" yaml:"edges" toml:"edges"`
	Found     int     `json:"found" yaml:"found" toml:"found"`
	Covered   bool    `json:"covered" yaml:"covered" toml:"covered"`
	Counts    Counts  `json:"counts" yaml:"counts" toml:"counts"`
	Precision float64 `json:"precision" yaml:"precision" toml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall" toml:"recall"`
}

// Coverage counts categories whose reference overlaps the candidate.
type Coverage struct {
	Total      int `json:"total" yaml:"total" toml:"total"`
	Covered    int `json:"covered" yaml:"covered" toml:"covered"`
	NotCovered int `json:"notCovered" yaml:"notCovered" toml:"notCovered"`
}

// FeatureResult aggregates the categories of one feature.
type FeatureResult struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Coverage Coverage `json:"coverage" yaml:"coverage" toml:"coverage"`
	Counts   Counts   `json:"counts" yaml:"counts" toml:"counts"`
	Pooled   Metrics  `json:"pooled" yaml:"pooled" toml:"pooled"`
	Averaged Metrics  `json:"averaged" yaml:"averaged" toml:"averaged"`
}

// Mismatch is a reference edge the candidate missed.
type Mismatch struct {
	Feature  string `json:"feature" yaml:"feature" toml:"feature"`
	Category string `json:"category" yaml:"category" toml:"category"`
	Source   string `json:"source" yaml:"source" toml:"source"`
	Target   string `json:"target" yaml:"target" toml:"target"`
}

// Report is the result of scoring a candidate against a suite.
type Report struct {
	Suite        string          `json:"suite" yaml:"suite" toml:"suite"`
	Mode         Mode            `json:"mode" yaml:"mode" toml:"mode"`
	Coverage     Coverage        `json:"coverage" yaml:"coverage" toml:"coverage"`
	PooledCounts Counts          `json:"pooledCounts" yaml:"pooledCounts" toml:"pooledCounts"`
	Pooled       Metrics         `json:"pooled" yaml:"pooled" toml:"pooled"`
	Averaged     Metrics         `json:"averaged" yaml:"averaged" toml:"averaged"`
	Features     []FeatureResult `json:"features" yaml:"features" toml:"features"`
	Units        []UnitResult    `json:"units" yaml:"units" toml:"units"`
	Mismatches   []Mismatch      `json:"mismatches,omitempty" yaml:"mismatches,omitempty" toml:"mismatches,omitempty"`
}

// Evaluate scores candidates against every category of the suite that has
// a reference graph. Categories without one count toward coverage totals
// only.
func Evaluate(suite *Suite, candidates Candidates, mode Mode) *Report {
	report := &Report{Suite: suite.Dir, Mode: mode}

	var all []Counts
	for _, f := range suite.Features {
		fr := FeatureResult{Name: f.Name}
		var units []Counts

		for _, c := range f.Categories {
			report.Coverage.Total++
			fr.Coverage.Total++
			if !c.HasReference() {
				continue
			}

			key := UnitKey{Feature: f.Name, Category: c.Name}
			cand := candidates.For(key)
			counts := Score(cand, c.Reference)
			covered := counts.TP > 0

			if covered {
				report.Coverage.Covered++
				fr.Coverage.Covered++
			} else {
				report.Coverage.NotCovered++
				fr.Coverage.NotCovered++
			}

			report.Units = append(report.Units, UnitResult{
				Feature:   f.Name,
				Category:  c.Name,
				Edges:     c.Reference.Len(),
				Found:     counts.TP,
				Covered:   covered,
				Counts:    counts,
				Precision: counts.Precision(),
				Recall:    counts.Recall(),
			})
			report.Mismatches = append(report.Mismatches, mismatches(key, c.Reference, cand)...)
			units = append(units, counts)
		}

		fr.Pooled, fr.Counts = Pooled(units)
		if len(units) == 0 {
			fr.Averaged = Metrics{Precision: Undefined, Recall: Undefined}
		} else {
			fr.Averaged = Averaged(units)
		}
		report.Features = append(report.Features, fr)
		all = append(all, units...)
	}

	report.Pooled, report.PooledCounts = Pooled(all)
	report.Averaged = Averaged(all)
	return report
}

func mismatches(key UnitKey, reference, candidate relation.Set) []Mismatch {
	var out []Mismatch
	for _, s := range reference.Difference(candidate).Sorted() {
		r, _ := relation.Parse(s)
		out = append(out, Mismatch{
			Feature:  key.Feature,
			Category: key.Category,
			Source:   r.Source,
			Target:   r.Target,
		})
	}
	return out
}

// FormatReport generates a human-readable report.
func (r *Report) FormatReport(showMismatches bool) string {
	var sb strings.Builder

	sb.WriteString("=== Micro-Suite Precision/Recall Report ===\n\n")
	fmt.Fprintf(&sb, "Suite:    %s\n", r.Suite)
	fmt.Fprintf(&sb, "Coverage: %d/%d categories\n\n", r.Coverage.Covered, r.Coverage.Total)

	sb.WriteString("Coverage Per Feature:\n")
	for _, f := range r.Features {
		fmt.Fprintf(&sb, "  %-24s %d/%d\n", f.Name, f.Coverage.Covered, f.Coverage.Total)
	}
	sb.WriteString("\n")

	if r.Mode.Includes(ModePooled) {
		fmt.Fprintf(&sb, "Pooled Total -> P: %.2f, R: %.2f (tp=%d fp=%d fn=%d)\n",
			r.Pooled.Precision, r.Pooled.Recall, r.PooledCounts.TP, r.PooledCounts.FP, r.PooledCounts.FN)
		for _, f := range r.Features {
			fmt.Fprintf(&sb, "  %-24s P: %.2f, R: %.2f\n", f.Name, f.Pooled.Precision, f.Pooled.Recall)
		}
		sb.WriteString("\n")
	}

	if r.Mode.Includes(ModeAveraged) {
		fmt.Fprintf(&sb, "Averaged Total -> P: %.2f, R: %.2f (%d units)\n",
			r.Averaged.Precision, r.Averaged.Recall, r.Averaged.Units)
		for _, f := range r.Features {
			fmt.Fprintf(&sb, "  %-24s P: %.2f, R: %.2f\n", f.Name, f.Averaged.Precision, f.Averaged.Recall)
		}
		sb.WriteString("\n")
	}

	if showMismatches {
		if len(r.Mismatches) == 0 {
			sb.WriteString("No mismatches found.\n")
			return sb.String()
		}
		sb.WriteString("Mismatches:\n")
		last := UnitKey{}
		for _, m := range r.Mismatches {
			key := UnitKey{Feature: m.Feature, Category: m.Category}
			if key != last {
				fmt.Fprintf(&sb, "  %s\n", key)
				last = key
			}
			fmt.Fprintf(&sb, "    %s -> %s\n", m.Source, m.Target)
		}
	}

	return sb.String()
}
