package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the name normalization
// engine. Metrics are organized by subsystem: analyses, suggestions, and
// learning state. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// AnalysesStarted counts the total number of analysis passes initiated.
	AnalysesStarted prometheus.Counter

	// AnalysesCompleted counts the total number of passes that finished successfully.
	AnalysesCompleted prometheus.Counter

	// AnalysesFailed counts the total number of passes that ended in failure.
	AnalysesFailed prometheus.Counter

	// AnalysesCancelled counts the total number of passes cancelled by the caller.
	AnalysesCancelled prometheus.Counter

	// AnalysisDuration observes the end-to-end duration of passes in seconds.
	AnalysisDuration prometheus.Histogram

	// RecordsProcessed counts creator records scanned across all passes.
	RecordsProcessed prometheus.Counter

	// RecordsPerAnalysis observes the distribution of record counts per pass.
	RecordsPerAnalysis prometheus.Histogram

	// SuggestionsGenerated counts emitted suggestions, labeled by suggestion type.
	SuggestionsGenerated *prometheus.CounterVec

	// SuggestionsApplied counts suggestions the host accepted.
	SuggestionsApplied prometheus.Counter

	// SuggestionsDeclined counts suggestions the host rejected.
	SuggestionsDeclined prometheus.Counter

	// RecordsUpdated counts record updates computed from accepted suggestions.
	RecordsUpdated prometheus.Counter

	// MappingsStored counts raw-to-normalized mappings written to the learning engine.
	MappingsStored prometheus.Counter

	// DistinctPairsRecorded counts merge rejections persisted from declined suggestions.
	DistinctPairsRecorded prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AnalysesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_started_total",
			Help:      "Total number of analysis passes started",
		}),
		AnalysesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_completed_total",
			Help:      "Total number of analysis passes completed successfully",
		}),
		AnalysesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_failed_total",
			Help:      "Total number of analysis passes that failed",
		}),
		AnalysesCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_cancelled_total",
			Help:      "Total number of analysis passes cancelled by the caller",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis pass duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_processed_total",
			Help:      "Total number of creator records scanned",
		}),
		RecordsPerAnalysis: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_per_analysis",
			Help:      "Distribution of creator record counts per analysis pass",
			Buckets:   []float64{10, 100, 500, 1000, 5000, 10000, 50000},
		}),
		SuggestionsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_generated_total",
			Help:      "Total number of merge suggestions emitted, by type",
		}, []string{"type"}),
		SuggestionsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_applied_total",
			Help:      "Total number of suggestions accepted by the host",
		}),
		SuggestionsDeclined: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_declined_total",
			Help:      "Total number of suggestions declined by the host",
		}),
		RecordsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_updated_total",
			Help:      "Total number of record updates computed from accepted suggestions",
		}),
		MappingsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mappings_stored_total",
			Help:      "Total number of raw-to-normalized mappings written",
		}),
		DistinctPairsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "distinct_pairs_recorded_total",
			Help:      "Total number of merge rejections persisted",
		}),
	}
}
