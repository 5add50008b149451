package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/engine"
)

// fileSource reads creator records from a JSON export. It accepts either
// a bare array of records or an object with a "records" field.
type fileSource struct {
	path string
}

var _ engine.RecordSource = (*fileSource)(nil)

func (f *fileSource) ListCreatorRecords(_ context.Context) ([]domain.CreatorRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []domain.CreatorRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return normalizeRecords(records), nil
	}

	var wrapped struct {
		Records []domain.CreatorRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse records file: %w", err)
	}
	return normalizeRecords(wrapped.Records), nil
}

// normalizeRecords fills in the implicit single-occurrence count for
// exports that omit it.
func normalizeRecords(records []domain.CreatorRecord) []domain.CreatorRecord {
	for i := range records {
		if records[i].OccurrenceCount == 0 {
			records[i].OccurrenceCount = 1
		}
	}
	return records
}

func newAnalyzeCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Cluster name variants in a creator record export",
		Long:  "analyze reads a JSON export of creator records, runs both clustering passes and writes the resulting suggestions as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(&fileSource{path: inputPath})
			if err != nil {
				return err
			}
			defer rt.close()

			var progress domain.ProgressFunc
			if !quiet {
				progress = func(u domain.ProgressUpdate) {
					fmt.Fprintf(os.Stderr, "\r%s %d/%d", u.Stage, u.Processed, u.Total)
					if u.Stage == "done" {
						fmt.Fprintln(os.Stderr)
					}
				}
			}

			result, err := rt.engine.Analyze(cmd.Context(), progress)
			if err != nil {
				return err
			}

			return writeResult(outputPath, result)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with creator records (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write suggestions to file instead of stdout")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// writeResult marshals v as indented JSON to path, or stdout when path
// is empty.
func writeResult(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
