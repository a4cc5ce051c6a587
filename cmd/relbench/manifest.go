package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relbench/internal/artifact"
	"relbench/internal/output"
)

var (
	manifestProject string
	manifestFormat  string
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Show the module mapping derived from a project's paths.txt",
	Args:  cobra.NoArgs,
	RunE:  runManifest,
}

func init() {
	manifestCmd.Flags().StringVarP(&manifestProject, "project", "p", "", "Project name (subdirectory of the data directory)")
	manifestCmd.Flags().StringVar(&manifestFormat, "format", "human", "Output format (human, json, yaml, toml)")
	_ = manifestCmd.MarkFlagRequired("project")
	rootCmd.AddCommand(manifestCmd)
}

// manifestReport is the machine-readable form of a project manifest.
type manifestReport struct {
	Project    string                    `json:"project" yaml:"project" toml:"project"`
	Files      int                       `json:"files" yaml:"files" toml:"files"`
	Extensions []artifact.ExtensionCount `json:"extensions" yaml:"extensions" toml:"extensions"`
	Modules    map[string]string         `json:"modules" yaml:"modules" toml:"modules"`
}

func runManifest(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	format, err := resolveFormat(cmd, manifestFormat, e.cfg)
	if err != nil {
		return err
	}

	m, err := artifact.LoadManifest(e.cfg.DataDir, manifestProject)
	if err != nil {
		return err
	}
	mapping := m.ModuleMapping()
	exts := m.Extensions()

	out := cmd.OutOrStdout()
	if format == output.FormatHuman {
		_, err := fmt.Fprint(out, formatMappingHuman(mapping, exts))
		return err
	}
	return output.Encode(out, format, manifestReport{
		Project:    manifestProject,
		Files:      len(m.Paths),
		Extensions: exts,
		Modules:    mapping,
	})
}
