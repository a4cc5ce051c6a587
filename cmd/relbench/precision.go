package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relbench/internal/eval"
	"relbench/internal/export"
	"relbench/internal/output"
)

var (
	precisionCandidate  string
	precisionSuite      string
	precisionMode       string
	precisionMismatches bool
	precisionFormat     string
	precisionXLSX       string
)

var precisionCmd = &cobra.Command{
	Use:   "precision",
	Short: "Score a candidate call graph against a reference micro-suite",
	Long: `Compare the method calls of a RefExpo CSV against the reference call
graphs of a micro-suite laid out as <suite>/<feature>/<category>/cleaned_callgraph.json.

Precision and recall are reported pooled (counts summed over all categories)
and/or averaged (mean of per-category values). A category with nothing to
divide by scores -1 in the average.

Examples:
  relbench precision --candidate refExpo.csv --suite micro-benchmark/snippets
  relbench precision --candidate refExpo.csv --suite suite --mode pooled --mismatches`,
	Args: cobra.NoArgs,
	RunE: runPrecision,
}

func init() {
	f := precisionCmd.Flags()
	f.StringVar(&precisionCandidate, "candidate", "", "RefExpo CSV with the candidate call graph")
	f.StringVar(&precisionSuite, "suite", "", "Reference micro-suite directory")
	f.StringVar(&precisionMode, "mode", "", "Aggregation: pooled, averaged or both (default: configured policy)")
	f.BoolVar(&precisionMismatches, "mismatches", false, "List reference edges the candidate missed")
	f.StringVar(&precisionFormat, "format", "human", "Output format (human, json, yaml, toml)")
	f.StringVar(&precisionXLSX, "xlsx", "", "Also write an XLSX workbook to this path")
	_ = precisionCmd.MarkFlagRequired("candidate")
	_ = precisionCmd.MarkFlagRequired("suite")
	rootCmd.AddCommand(precisionCmd)
}

func runPrecision(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	modeName := e.cfg.Policy.Aggregation
	if precisionMode != "" {
		modeName = precisionMode
	}
	mode, ok := eval.ParseMode(modeName)
	if !ok {
		return fmt.Errorf("invalid aggregation mode %q (expected pooled, averaged or both)", modeName)
	}
	format, err := resolveFormat(cmd, precisionFormat, e.cfg)
	if err != nil {
		return err
	}

	suite, err := eval.LoadSuite(precisionSuite, eval.SuiteOptions{
		ReferenceFile:    e.cfg.Eval.ReferenceFile,
		ExcludeSubstring: e.cfg.Eval.ExcludeSubstring,
	})
	if err != nil {
		return err
	}
	candidates, err := eval.LoadCandidates(precisionCandidate, e.cfg.Policy.ActiveMissingMarkers())
	if err != nil {
		return err
	}
	e.logger.Debug("Loaded micro-suite",
		"suite", precisionSuite,
		"features", len(suite.Features),
		"categories", suite.Units(),
		"candidateUnits", len(candidates),
	)

	report := eval.Evaluate(suite, candidates, mode)

	if precisionXLSX != "" {
		if err := export.NewExporter(e.logger).Precision(precisionXLSX, report); err != nil {
			return err
		}
		e.logger.Info("Wrote workbook", "path", precisionXLSX)
	}

	out := cmd.OutOrStdout()
	if format == output.FormatHuman {
		_, err := fmt.Fprint(out, report.FormatReport(precisionMismatches))
		return err
	}
	if !precisionMismatches {
		// The workbook always lists mismatches; printed output only on request.
		report.Mismatches = nil
	}
	return output.Encode(out, format, report)
}
