package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"relbench/internal/analysis"
	"relbench/internal/compare"
	"relbench/internal/export"
	"relbench/internal/extract"
	"relbench/internal/output"
	"relbench/internal/relation"
	"relbench/internal/storage"
)

var (
	compareProject    string
	compareLevel      string
	compareTools      []string
	compareFormat     string
	compareRecord     bool
	compareXLSX       string
	compareParallel   int
	compareShowUnique int
	compareOverlaps   bool
	compareBaseline   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the relations reported by every available tool",
	Long: `Extract relations from each tool output found for a project and compare them.

Tools that cannot report at the requested level, or whose output file is
missing, are excluded and listed. The report shows per-tool unique counts,
the number of relations every tool agrees on, and a histogram of relations
found by exactly k tools.

With --baseline the report is checked against one saved earlier with
--format json; run ids and durations are ignored. A difference is an error.

Examples:
  relbench compare -p guava -e CLASS
  relbench compare -p requests -e METHOD --tools pyan,pycg --format json
  relbench compare -p guava -e METHOD --record --xlsx guava.xlsx
  relbench compare -p guava -e CLASS --baseline guava-class.json`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&compareProject, "project", "p", "", "Project name (subdirectory of the data directory)")
	f.StringVarP(&compareLevel, "evaluation", "e", "", "Evaluation level: FILE, CLASS or METHOD")
	f.StringSliceVar(&compareTools, "tools", nil, "Comma-separated tools to run (default: configured tools)")
	f.StringVar(&compareFormat, "format", "human", "Output format (human, json, yaml, toml)")
	f.BoolVar(&compareRecord, "record", false, "Store the summary in the run history")
	f.StringVar(&compareXLSX, "xlsx", "", "Also write an XLSX workbook to this path")
	f.IntVar(&compareParallel, "parallel", 0, "Number of tools extracted at once (default: configured value)")
	f.IntVar(&compareShowUnique, "show-unique", 0, "List up to N unique relations per tool")
	f.BoolVar(&compareOverlaps, "overlaps", true, "Include pairwise overlap (Jaccard) figures")
	f.StringVar(&compareBaseline, "baseline", "", "JSON report to check this comparison against")
	_ = compareCmd.MarkFlagRequired("project")
	_ = compareCmd.MarkFlagRequired("evaluation")
	rootCmd.AddCommand(compareCmd)
}

// runInfo describes which tools took part in a comparison.
type runInfo struct {
	ID           string               `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Project      string               `json:"project" yaml:"project" toml:"project"`
	Level        string               `json:"level" yaml:"level" toml:"level"`
	Participants []string             `json:"participants" yaml:"participants" toml:"participants"`
	Excluded     []analysis.Exclusion `json:"excluded,omitempty" yaml:"excluded,omitempty" toml:"excluded,omitempty"`
	DurationNs   int64                `json:"durationNs" yaml:"durationNs" toml:"durationNs"`
}

// uniqueSample lists some relations only one tool reported.
type uniqueSample struct {
	Label     string   `json:"label" yaml:"label" toml:"label"`
	Total     int      `json:"total" yaml:"total" toml:"total"`
	Relations []string `json:"relations" yaml:"relations" toml:"relations"`
}

// compareReport is the document printed by compare.
type compareReport struct {
	Run     runInfo         `json:"run" yaml:"run" toml:"run"`
	Summary compare.Summary `json:"summary" yaml:"summary" toml:"summary"`
	Unique  []uniqueSample  `json:"unique,omitempty" yaml:"unique,omitempty" toml:"unique,omitempty"`
}

func runCompare(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	level, err := relation.ParseLevel(compareLevel)
	if err != nil {
		return err
	}
	format, err := resolveFormat(cmd, compareFormat, e.cfg)
	if err != nil {
		return err
	}

	tools := e.cfg.Tools
	if cmd.Flags().Changed("tools") {
		tools = compareTools
	}
	parallel := e.cfg.Parallel
	if cmd.Flags().Changed("parallel") {
		parallel = compareParallel
	}

	registry := extract.DefaultRegistry(extract.Options{
		Logger:         e.logger,
		MissingMarkers: e.cfg.Policy.ActiveMissingMarkers(),
		NoiseTargets:   e.cfg.Policy.NoiseTargets,
	})
	driver := analysis.NewDriver(registry, analysis.Options{
		DataDir:           e.cfg.DataDir,
		Tools:             tools,
		Parallel:          parallel,
		DropMissingMarker: e.cfg.Policy.DropMissingMarker,
		MissingMarkers:    e.cfg.Policy.MissingMarkers,
		Logger:            e.logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := driver.Run(ctx, compareProject, level)
	if err != nil {
		return err
	}
	if len(run.Participants) == 0 {
		e.logger.Warn("No tool produced relations for this project and level",
			"project", compareProject,
			"level", level.String(),
			"excluded", len(run.Excluded),
		)
	}

	result := compare.Compare(run.Labeled())
	report := &compareReport{
		Run: runInfo{
			Project:      run.Project,
			Level:        level.String(),
			Participants: displayNames(run.Participants),
			Excluded:     run.Excluded,
			DurationNs:   run.Duration.Nanoseconds(),
		},
		Summary: result.Summarize(compareOverlaps),
	}
	if compareShowUnique > 0 {
		report.Unique = uniqueSamples(result, compareShowUnique)
	}

	// Check against the baseline before anything is recorded
	if compareBaseline != "" {
		if err := checkBaseline(compareBaseline, report); err != nil {
			return err
		}
		e.logger.Info("Report matches baseline", "path", compareBaseline)
	}

	if compareRecord {
		db, err := storage.Open(e.root, e.logger)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		rec := storage.NewRunRecord(run.Project, level.String(), report.Summary, exclusionKeys(run.Excluded), run.Duration)
		id, err := db.SaveRun(rec)
		_ = db.Close()
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
		report.Run.ID = id
	}

	if compareXLSX != "" {
		err := export.NewExporter(e.logger).Comparison(compareXLSX, export.Comparison{
			Project:       run.Project,
			Level:         level.String(),
			Result:        result,
			Excluded:      run.Excluded,
			IncludeUnique: true,
		})
		if err != nil {
			return err
		}
		e.logger.Info("Wrote workbook", "path", compareXLSX)
	}

	out := cmd.OutOrStdout()
	if format == output.FormatHuman {
		_, err := fmt.Fprint(out, formatCompareHuman(report))
		return err
	}
	return output.Encode(out, format, report)
}

// checkBaseline compares report with a JSON report saved earlier, ignoring
// run ids and durations.
func checkBaseline(path string, report *compareReport) error {
	baseline, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read baseline: %w", err)
	}
	current, err := output.DeterministicEncode(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if same, reason := output.CompareSnapshots(baseline, current); !same {
		return fmt.Errorf("report differs from baseline %s: %s", path, reason)
	}
	return nil
}

func displayNames(participants []analysis.Participant) []string {
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.Display
	}
	return names
}

func exclusionKeys(excluded []analysis.Exclusion) []string {
	keys := make([]string, len(excluded))
	for i, x := range excluded {
		keys[i] = x.Tool + ":" + string(x.Reason)
	}
	return keys
}

func uniqueSamples(result *compare.Result, limit int) []uniqueSample {
	samples := make([]uniqueSample, len(result.Labels))
	for i, label := range result.Labels {
		all := result.Unique[i].Sorted()
		samples[i] = uniqueSample{Label: label, Total: len(all), Relations: all}
		if len(all) > limit {
			samples[i].Relations = all[:limit]
		}
	}
	return samples
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
