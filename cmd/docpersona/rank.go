package main

import (
	"fmt"

	"github.com/dgallion1/docpersona/internal/outline"
	"github.com/spf13/cobra"
)

var rankCmd = &cobra.Command{
	Use:   "rank --persona P --job J FILE...",
	Short: "Rank document headings for a persona and task",
	Long:  "Extracts the outline of every FILE in-process, ranks all headings by relevance to the persona and job to be done, and prints the analysis as JSON.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRank,
}

var (
	rankPersona string
	rankJob     string
)

func init() {
	rankCmd.Flags().StringVarP(&rankPersona, "persona", "p", "", "Persona description (required)")
	rankCmd.Flags().StringVarP(&rankJob, "job", "j", "", "Job to be done (required)")

	if err := rankCmd.MarkFlagRequired("persona"); err != nil {
		panic(fmt.Sprintf("failed to mark persona flag as required: %v", err))
	}
	if err := rankCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	svc := offlineService()
	docs := make([]*outline.Outline, 0, len(args))
	for _, path := range args {
		o, err := extractFile(cmd, svc, path)
		if err != nil {
			return err
		}
		docs = append(docs, o)
	}

	result, err := svc.Rank(rankPersona, rankJob, docs)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), result)
}
