// Package main provides the zner command line tool for analyzing creator
// name exports and applying merge decisions against a local learning
// store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/milekpl/zotero-ner/internal/cluster"
	"github.com/milekpl/zotero-ner/internal/config"
	"github.com/milekpl/zotero-ner/internal/engine"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/nameparse"
	"github.com/milekpl/zotero-ner/internal/observability"
	"github.com/milekpl/zotero-ner/internal/storage/badgerstore"
)

var (
	flagDataDir  string
	flagInMemory bool
	flagLogLevel string

	rootCmd = &cobra.Command{
		Use:           "zner",
		Short:         "Detect and normalize creator name variants",
		Long:          "zner clusters spelling variants of creator names in a bibliographic export and records accept/reject decisions in a local learning store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "learning store directory (defaults to storage.path from config)")
	rootCmd.PersistentFlags().BoolVar(&flagInMemory, "in-memory", false, "keep learning state in memory only")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newApplyCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runtime bundles the engines a command needs, with a cleanup that
// flushes learning state.
type runtime struct {
	engine *engine.Engine
	close  func()
}

// newRuntime loads configuration, opens the Badger-backed learning store
// and wires the engines. The CLI always uses the embedded store; the
// postgres backend is served by the HTTP server.
func newRuntime(source engine.RecordSource) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logging := observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: cfg.Logging.TimeFormat,
	}
	if flagLogLevel != "" {
		logging.Level = flagLogLevel
	}
	logger := observability.NewLogger(logging).With().Str("component", "zner").Logger()

	path := cfg.Storage.Path
	if flagDataDir != "" {
		path = flagDataDir
	}

	store, err := badgerstore.Open(badgerstore.Config{
		Path:     path,
		InMemory: flagInMemory || cfg.Storage.InMemory,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open learning store: %w", err)
	}

	learn := learning.NewEngine(store, learning.Config{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		MaxSuggestions:      cfg.Engine.MaxSuggestions,
		SaveBatchSize:       cfg.Engine.SaveBatchSize,
		SaveDelay:           cfg.Engine.SaveDelay,
		KeyCacheSize:        cfg.Engine.KeyCacheSize,
		SimilarityCacheSize: cfg.Engine.SimilarityCacheSize,
	}, logger)

	parser := nameparse.NewParser(cfg.Engine.ParseCacheSize)
	clusterEngine := cluster.New(parser, learn, logger)

	eng, err := engine.New(source, clusterEngine, learn, engine.Config{
		ProgressInterval: cfg.Engine.ProgressInterval,
	}, nil, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	closeAll := func() {
		if err := learn.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to flush learning state")
		}
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close learning store")
		}
	}

	return &runtime{engine: eng, close: closeAll}, nil
}
