package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"relbench/internal/config"
	"relbench/internal/errors"
	"relbench/internal/output"
	"relbench/internal/paths"
	"relbench/internal/slogutil"
	"relbench/internal/version"
)

var (
	// rootFlag is the workspace root holding .relbench/
	rootFlag string
	// dataDirFlag overrides the configured data directory
	dataDirFlag string
	verbosity   int
	quietFlag   bool
	logFileFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "relbench",
	Short: "relbench - compare static-analysis dependency outputs",
	Long: `relbench normalizes the dependency and call-graph outputs of several
static-analysis tools into canonical "source->target" relations and compares
them: relations unique to each tool, relations every tool agrees on, and how
many relations are shared by exactly k tools. It can also score a candidate
call graph against a reference micro-suite (precision and recall).`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("relbench version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlag, "root", "", "Workspace root holding .relbench/ (default: current directory)")
	pf.StringVar(&dataDirFlag, "data-dir", "", "Directory with one subdirectory of tool outputs per project (overrides config)")
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Silence all logging")
	pf.BoolVar(&logFileFlag, "log-file", false, "Also append logs to .relbench/logs/relbench.log")
}

// env is the per-invocation state built from flags and configuration.
type env struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	close  func()
}

// setup resolves the workspace, loads and validates configuration and
// builds the logger.
// Precedence: CLI flag > RELBENCH_* env var > config.json > defaults
func setup(cmd *cobra.Command) (*env, error) {
	root, err := workspaceRoot()
	if err != nil {
		return nil, err
	}

	// 1. Config file, .env and environment
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "", "failed to load configuration", err)
	}

	// 2. Flag overrides
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, "", "invalid configuration", err)
	}
	if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(root, cfg.DataDir)
	}

	// 3. Logging: -v/-q win over logging.level
	level := slogutil.LevelFromString(cfg.Logging.Level)
	flags := cmd.Flags()
	if flags.Changed("verbose") || flags.Changed("quiet") {
		level = slogutil.LevelFromVerbosity(verbosity, quietFlag)
	}

	e := &env{root: root, cfg: cfg, close: func() {}}
	stderrLogger := slogutil.NewLoggerWithFormat(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	e.logger = stderrLogger

	if logFileFlag {
		logPath := paths.LogFilePath(root)
		if err := paths.EnsureDir(filepath.Dir(logPath)); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileLogger, f, err := slogutil.NewFileLogger(logPath, slog.LevelDebug)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		e.logger = slog.New(slogutil.NewTeeHandler(stderrLogger.Handler(), fileLogger.Handler()))
		e.close = func() { _ = f.Close() }
	}
	return e, nil
}

// workspaceRoot returns the absolute --root, or the working directory.
func workspaceRoot() (string, error) {
	root := rootFlag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	return abs, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// resolveFormat picks the --format flag when given, else the configured one.
func resolveFormat(cmd *cobra.Command, flagValue string, cfg *config.Config) (output.Format, error) {
	if cmd.Flags().Changed("format") {
		return output.ParseFormat(flagValue)
	}
	return output.ParseFormat(cfg.Output.Format)
}
