package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relbench/internal/config"
	"relbench/internal/output"
	"relbench/internal/paths"
)

var (
	configShowFormat string
	configInitForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage relbench configuration",
	Long:  "View and manage relbench configuration stored in .relbench/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, .relbench/config.json, .env and
RELBENCH_* environment overrides have been applied.

Examples:
  relbench config show
  relbench config show --format yaml
  RELBENCH_PARALLEL=4 relbench config show`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .relbench/config.json",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "human", "Output format (human, json, yaml, toml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	f, err := output.ParseFormat(configShowFormat)
	if err != nil {
		return err
	}
	// Human output is the JSON document under a path header
	if f == output.FormatHuman {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", paths.ConfigPath(e.root))
		f = output.FormatJSON
	}
	return output.Encode(cmd.OutOrStdout(), f, e.cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	path := paths.ConfigPath(root)
	if fileExists(path) && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(root); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
