package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relbench/internal/extract"
	"relbench/internal/output"
	"relbench/internal/relation"
)

var (
	toolsLevel  string
	toolsFormat string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the supported tools and their evaluation levels",
	Long: `List every registered extractor with its default output file name and the
evaluation levels it can report. With -e only tools supporting that level are shown.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsLevel, "evaluation", "e", "", "Only tools supporting this level (FILE, CLASS, METHOD)")
	toolsCmd.Flags().StringVar(&toolsFormat, "format", "human", "Output format (human, json, yaml, toml)")
	rootCmd.AddCommand(toolsCmd)
}

// toolInfo describes one registered extractor.
type toolInfo struct {
	Name    string   `json:"name" yaml:"name" toml:"name"`
	Display string   `json:"display" yaml:"display" toml:"display"`
	File    string   `json:"file" yaml:"file" toml:"file"`
	Levels  []string `json:"levels" yaml:"levels" toml:"levels"`
}

func runTools(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	format, err := resolveFormat(cmd, toolsFormat, e.cfg)
	if err != nil {
		return err
	}

	registry := extract.DefaultRegistry(extract.Options{Logger: e.logger})
	extractors := registry.All()
	if toolsLevel != "" {
		level, err := relation.ParseLevel(toolsLevel)
		if err != nil {
			return err
		}
		extractors = registry.Supporting(level)
	}

	tools := make([]toolInfo, len(extractors))
	for i, x := range extractors {
		tools[i] = toolInfo{
			Name:    x.Name(),
			Display: x.DisplayName(),
			File:    x.FileName(),
			Levels:  levelNames(x),
		}
	}

	out := cmd.OutOrStdout()
	if format == output.FormatHuman {
		_, err := fmt.Fprint(out, formatToolsHuman(tools))
		return err
	}
	return output.Encode(out, format, map[string]interface{}{"tools": tools})
}
