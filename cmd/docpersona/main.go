// Package main provides the docpersona command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "docpersona",
	Short:        "Document outline extraction and persona relevance ranking",
	Long:         "docpersona extracts a title and H1-H3 heading outline from PDF and structured documents, and ranks headings across documents for a persona and task.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
