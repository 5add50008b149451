// Package engine is the entry point the host talks to: it pulls creator
// records from the host, runs the clustering passes, and turns the host's
// accept/decline decisions into record updates and persisted learning
// state. The engine never mutates host storage itself.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/cluster"
	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/observability"
)

// RecordSource is the host interface the engine queries for creator
// records. The host returns a flattened, deduplicated list with occurrence
// counts; tests supply a fake implementation.
type RecordSource interface {
	ListCreatorRecords(ctx context.Context) ([]domain.CreatorRecord, error)
}

// acceptContext labels learning mappings written from accepted suggestions.
const acceptContext = "user-accept"

// DefaultProgressInterval is the number of records scanned between
// progress reports and cancellation polls.
const DefaultProgressInterval = 250

// Config holds the facade's tunables.
type Config struct {
	// ProgressInterval is the record count between progress callbacks and
	// cancellation checks. Reporting per record would dominate large
	// batches.
	ProgressInterval int
}

// Engine orchestrates analysis passes and decision application. Analysis
// is cooperative and single-flight by contract: the host must not start a
// second pass while one is pending.
type Engine struct {
	source  RecordSource
	cluster *cluster.Engine
	learn   *learning.Engine
	metrics *observability.Metrics
	logger  zerolog.Logger

	progressInterval int
}

// New creates the engine facade. A nil source is allowed for hosts that
// push records explicitly through AnalyzeRecords; Analyze then reports
// domain.ErrHostUnavailable. Metrics may be nil.
func New(source RecordSource, clusterEngine *cluster.Engine, learn *learning.Engine, cfg Config, metrics *observability.Metrics, logger zerolog.Logger) (*Engine, error) {
	if clusterEngine == nil || learn == nil {
		return nil, fmt.Errorf("%w: clustering and learning engines are required", domain.ErrInvalidInput)
	}
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Engine{
		source:           source,
		cluster:          clusterEngine,
		learn:            learn,
		metrics:          metrics,
		logger:           logger.With().Str("component", "engine").Logger(),
		progressInterval: interval,
	}, nil
}

// Analyze pulls all creator records from the host and analyzes them.
func (e *Engine) Analyze(ctx context.Context, progress domain.ProgressFunc) (*domain.AnalysisResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("record source: %w", domain.ErrHostUnavailable)
	}
	records, err := e.source.ListCreatorRecords(ctx)
	if err != nil {
		if e.metrics != nil {
			e.metrics.AnalysesFailed.Inc()
		}
		return nil, fmt.Errorf("listing creator records: %w", err)
	}
	return e.AnalyzeRecords(ctx, records, progress)
}

// AnalyzeRecords runs both clustering passes over records and returns
// gated suggestions with corpus statistics. A run ID stamped on the
// context via observability.WithRunID is adopted for the result and run
// logs; otherwise a fresh one is generated. Cancellation is polled at
// bounded intervals; a cancelled pass returns domain.ErrCancelled and
// persists nothing, since analysis only reads learning state.
func (e *Engine) AnalyzeRecords(ctx context.Context, records []domain.CreatorRecord, progress domain.ProgressFunc) (*domain.AnalysisResult, error) {
	runID := uuid.New()
	if id, err := uuid.Parse(observability.RunIDFromContext(ctx)); err == nil {
		runID = id
	}
	logger := observability.WithRunContext(e.logger, runID)
	start := time.Now()
	if e.metrics != nil {
		e.metrics.AnalysesStarted.Inc()
	}

	report := func(stage string, processed int) {
		if progress != nil {
			progress(domain.ProgressUpdate{Stage: stage, Processed: processed, Total: len(records)})
		}
	}

	frequencies := make(map[string]int)
	for i, rec := range records {
		if i%e.progressInterval == 0 {
			if err := e.cancelled(ctx); err != nil {
				logger.Warn().Int("processed", i).Msg("analysis cancelled during scan")
				return nil, err
			}
			report("scanning", i)
		}
		_, last := e.cluster.EffectiveName(rec)
		if last == "" {
			continue
		}
		frequencies[cluster.SurnameKey(last)] += rec.OccurrenceCount
	}

	if err := e.cancelled(ctx); err != nil {
		logger.Warn().Msg("analysis cancelled before clustering")
		return nil, err
	}
	report("clustering", len(records))

	suggestions := e.cluster.Suggestions(records)

	if err := e.cancelled(ctx); err != nil {
		logger.Warn().Msg("analysis cancelled after clustering")
		return nil, err
	}
	report("done", len(records))

	groups := 0
	for _, s := range suggestions {
		groups += len(s.Clusters)
		if e.metrics != nil {
			e.metrics.SuggestionsGenerated.WithLabelValues(string(s.Type)).Inc()
		}
	}
	if e.metrics != nil {
		e.metrics.AnalysesCompleted.Inc()
		e.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		e.metrics.RecordsProcessed.Add(float64(len(records)))
		e.metrics.RecordsPerAnalysis.Observe(float64(len(records)))
	}
	logger.Info().
		Int("records", len(records)).
		Int("suggestions", len(suggestions)).
		Int("unique_surnames", len(frequencies)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis completed")

	return &domain.AnalysisResult{
		RunID:               runID,
		Suggestions:         suggestions,
		SurnameFrequencies:  frequencies,
		TotalUniqueSurnames: len(frequencies),
		TotalVariantGroups:  groups,
		RecordsProcessed:    len(records),
	}, nil
}

func (e *Engine) cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if e.metrics != nil {
			e.metrics.AnalysesCancelled.Inc()
		}
		return domain.ErrCancelled
	}
	return nil
}

// ApplySuggestions turns the host's decisions into outcomes. For accepted
// suggestions it computes, per affected record, the target name pair and
// records the mapping. For declined suggestions every constituent variant
// pair becomes a distinct-pair record so it is never re-suggested, and the
// cluster's recommended pattern is marked skipped. All learning writes are
// flushed before returning.
func (e *Engine) ApplySuggestions(ctx context.Context, accepted, declined []domain.Suggestion) (*domain.ApplyResult, error) {
	result := &domain.ApplyResult{}

	for _, s := range accepted {
		if err := e.applyAccepted(s, result); err != nil {
			result.Errors = append(result.Errors, domain.ApplyError{
				SuggestionID: s.ID,
				Message:      err.Error(),
			})
			continue
		}
		result.Applied++
		if e.metrics != nil {
			e.metrics.SuggestionsApplied.Inc()
		}
	}

	for _, s := range declined {
		e.applyDeclined(s)
		if e.metrics != nil {
			e.metrics.SuggestionsDeclined.Inc()
		}
	}

	if err := e.learn.ForceSave(ctx); err != nil {
		return result, fmt.Errorf("saving learning state: %w", err)
	}
	e.logger.Info().
		Int("applied", result.Applied).
		Int("updated_records", len(result.UpdatedRecords)).
		Int("declined", len(declined)).
		Int("errors", len(result.Errors)).
		Msg("suggestions applied")
	return result, nil
}

func (e *Engine) applyAccepted(s domain.Suggestion, result *domain.ApplyResult) error {
	if len(s.Clusters) == 0 {
		return fmt.Errorf("suggestion carries no clusters: %w", domain.ErrInvalidInput)
	}
	for _, c := range s.Clusters {
		if c.RecommendedFullName == "" || len(c.Variants) < 2 {
			return fmt.Errorf("cluster for %q is not a valid merge target: %w", c.Surname, domain.ErrInvalidInput)
		}
		for _, v := range c.Variants {
			display := v.Display()
			e.learn.StoreMapping(display, c.RecommendedFullName, 1.0, acceptContext)
			if e.metrics != nil {
				e.metrics.MappingsStored.Inc()
			}
			if display == c.RecommendedFullName {
				continue
			}
			result.UpdatedRecords = append(result.UpdatedRecords, domain.RecordUpdate{
				OldFirstName: v.FirstName,
				OldLastName:  v.LastName,
				NewFirstName: c.RecommendedFirstName,
				NewLastName:  c.RecommendedSurname,
				Items:        v.Items,
			})
			if e.metrics != nil {
				e.metrics.RecordsUpdated.Inc()
			}
		}
	}
	return nil
}

// applyDeclined records rejections for both the surname and given-name
// spellings of every cluster so either pass suppresses the pair later.
func (e *Engine) applyDeclined(s domain.Suggestion) {
	for _, c := range s.Clusters {
		e.recordFieldPairs(c, domain.PairScopeSurname, func(v domain.NameVariant) string { return v.LastName })
		e.recordFieldPairs(c, domain.GivenNamePairScope(s.SurnameKey), func(v domain.NameVariant) string { return v.FirstName })
		e.learn.RecordSkip(c.Surname, c.RecommendedFirstName)
	}
}

func (e *Engine) recordFieldPairs(c domain.VariantCluster, scope string, field func(domain.NameVariant) string) {
	names := make([]string, 0, len(c.Variants))
	seen := make(map[string]struct{}, len(c.Variants))
	for _, v := range c.Variants {
		s := field(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		names = append(names, s)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			e.learn.RecordDistinctPair(names[i], names[j], scope)
			if e.metrics != nil {
				e.metrics.DistinctPairsRecorded.Inc()
			}
		}
	}
}
