// Package observability provides logging and metrics support for the
// creator name normalization engine.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for analysis passes, suggestions, and learning state
//   - Context helpers for propagating request and run identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Int("records", n).Msg("analysis started")
//
// Add run context to a logger:
//
//	logger = observability.WithRunContext(logger, runID)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("zotero_ner")
//
// Record metrics:
//
//	metrics.AnalysesStarted.Inc()
//	metrics.SuggestionsGenerated.WithLabelValues("given_name").Inc()
//	metrics.RecordsProcessed.Add(42)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithRunID(ctx, runID)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	runID := observability.RunIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the engine:
//
//   - request_id: HTTP request identifier
//   - run_id: Analysis pass identifier
//   - component: Emitting component (learning, cluster, engine, http)
//   - surname_key: Folded surname a suggestion refers to
//   - suggestion_id: Suggestion identifier
//   - backend: Storage backend (badger, postgres, memory)
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
