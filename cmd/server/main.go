// Package main provides the entry point for the name normalization HTTP
// server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/cluster"
	"github.com/milekpl/zotero-ner/internal/config"
	"github.com/milekpl/zotero-ner/internal/database"
	"github.com/milekpl/zotero-ner/internal/engine"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/nameparse"
	"github.com/milekpl/zotero-ner/internal/observability"
	httpserver "github.com/milekpl/zotero-ner/internal/server/http"
	"github.com/milekpl/zotero-ner/internal/storage/badgerstore"
	"github.com/milekpl/zotero-ner/internal/storage/pgstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("zotero-ner server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	learn := learning.NewEngine(store, learning.Config{
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		MaxSuggestions:      cfg.Engine.MaxSuggestions,
		SaveBatchSize:       cfg.Engine.SaveBatchSize,
		SaveDelay:           cfg.Engine.SaveDelay,
		KeyCacheSize:        cfg.Engine.KeyCacheSize,
		SimilarityCacheSize: cfg.Engine.SimilarityCacheSize,
	}, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := learn.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("failed to flush learning state")
		}
	}()

	parser := nameparse.NewParser(cfg.Engine.ParseCacheSize)
	clusterEngine := cluster.New(parser, learn, logger)

	eng, err := engine.New(nil, clusterEngine, learn, engine.Config{
		ProgressInterval: cfg.Engine.ProgressInterval,
	}, metrics, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	httpCfg := httpserver.Config{
		Address:      cfg.Server.HTTPAddress(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * time.Minute,
	}
	if cfg.Metrics.Enabled {
		httpCfg.MetricsPath = cfg.Metrics.Path
	}

	srv := httpserver.NewServer(httpCfg, eng, learn, parser, health, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().Str("address", httpCfg.Address).Msg("zotero-ner is ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("zotero-ner shutdown complete")
	return nil
}

// openStore creates the configured learning-state backend and returns the
// store, an optional health check, and a cleanup function.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (learning.Store, httpserver.HealthFunc, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendBadger:
		store, err := badgerstore.Open(badgerstore.Config{
			Path:     cfg.Storage.Path,
			InMemory: cfg.Storage.InMemory,
		}, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		closeStore := func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close badger store")
			}
		}
		return store, nil, closeStore, nil

	case config.StorageBackendPostgres:
		db, err := database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if cfg.Database.MigrationAutoRun {
			migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
			if err != nil {
				db.Close()
				return nil, nil, nil, fmt.Errorf("create migrator: %w", err)
			}
			if err := migrator.Up(); err != nil {
				_ = migrator.Close()
				db.Close()
				return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
			}
			if err := migrator.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close migrator")
			}
		}
		health := func(ctx context.Context) error {
			return db.Ping(ctx)
		}
		return pgstore.New(db, logger), health, db.Close, nil

	case config.StorageBackendMemory:
		return learning.NewMemoryStore(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
