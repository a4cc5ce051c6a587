package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"relbench/internal/output"
	"relbench/internal/storage"
)

var (
	runsProject string
	runsLimit   int
	runsID      string
	runsFormat  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List comparisons stored with compare --record",
	Long: `List recorded comparisons, newest first, or show a single run with --id.

Examples:
  relbench runs
  relbench runs -p guava --limit 5
  relbench runs --id 3f2a9c1e-0b7d-4c41-9a55-6f1f0e2d8b10 --format json`,
	Args: cobra.NoArgs,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVarP(&runsProject, "project", "p", "", "Only runs of this project")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
	runsCmd.Flags().StringVar(&runsID, "id", "", "Show only the run with this id")
	runsCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (human, json, yaml, toml)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	format, err := resolveFormat(cmd, runsFormat, e.cfg)
	if err != nil {
		return err
	}

	db, err := storage.Open(e.root, e.logger)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	// Single run
	if runsID != "" {
		rec, err := db.GetRun(runsID)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("run %s not found", runsID)
		}
		if format == output.FormatHuman {
			_, err := fmt.Fprint(out, formatRunsHuman([]*storage.RunRecord{rec}, time.Now()))
			return err
		}
		return output.Encode(out, format, map[string]interface{}{"run": rec})
	}

	runs, err := db.ListRuns(runsProject, runsLimit)
	if err != nil {
		return err
	}
	if format == output.FormatHuman {
		_, err := fmt.Fprint(out, formatRunsHuman(runs, time.Now()))
		return err
	}
	return output.Encode(out, format, map[string]interface{}{"runs": runs})
}
