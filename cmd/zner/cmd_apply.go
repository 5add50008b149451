package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milekpl/zotero-ner/internal/domain"
)

// decisionsFile is the JSON shape the apply command consumes: the
// suggestions from a previous analyze run, split by the user's verdict.
type decisionsFile struct {
	Accepted []domain.Suggestion `json:"accepted,omitempty"`
	Declined []domain.Suggestion `json:"declined,omitempty"`
}

func newApplyCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply accepted and declined merge suggestions",
		Long:  "apply records accepted suggestions as learning mappings and declined ones as distinct-pair and skip decisions, then prints the record updates the host should perform.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read decisions file: %w", err)
			}

			var decisions decisionsFile
			if err := json.Unmarshal(data, &decisions); err != nil {
				return fmt.Errorf("parse decisions file: %w", err)
			}
			if len(decisions.Accepted) == 0 && len(decisions.Declined) == 0 {
				return fmt.Errorf("decisions file carries no accepted or declined suggestions")
			}

			rt, err := newRuntime(nil)
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.engine.ApplySuggestions(cmd.Context(), decisions.Accepted, decisions.Declined)
			if err != nil {
				return err
			}

			return writeResult(outputPath, result)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with accepted/declined suggestions (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write record updates to file instead of stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
