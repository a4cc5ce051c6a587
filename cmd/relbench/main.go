package main

import (
	"fmt"
	"os"

	"relbench/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var relErr *errors.RelError
		if errors.As(err, &relErr) {
			for _, fix := range relErr.SuggestedFixes {
				if fix.Command != "" {
					fmt.Fprintf(os.Stderr, "  hint: %s ($ %s)\n", fix.Description, fix.Command)
				} else {
					fmt.Fprintf(os.Stderr, "  hint: %s\n", fix.Description)
				}
			}
		}
		os.Exit(1)
	}
}
