package learning

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSimilarDiacriticVariant(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())
	e.StoreMapping("Marcin Miłkowski", "Marcin Miłkowski", 1.0)

	matches := e.FindSimilar("Marcin Milkowski")
	require.Len(t, matches, 1)
	assert.Equal(t, "marcin miłkowski", matches[0].Key)
	assert.Equal(t, diacriticVariantScore, matches[0].Confidence)
}

func TestFindSimilarMiddleNameVariant(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())
	e.StoreMapping("John A. Smith", "John A. Smith", 1.0)
	e.StoreMapping("Jane Doe", "Jane Doe", 1.0)

	matches := e.FindSimilar("John Smith")
	require.Len(t, matches, 1, "only the shared surname matches")
	assert.Equal(t, "john a smith", matches[0].Key)
	assert.GreaterOrEqual(t, matches[0].Confidence, e.cfg.ConfidenceThreshold)
}

func TestBlendedSimilarity(t *testing.T) {
	t.Parallel()

	// 0.5*JW(0.9667) + 0.3*(2/3 word overlap) + 0.2*(1.0 initial-aware).
	assert.InDelta(t, 0.8833, blendedSimilarity("john smith", "john a smith"), 0.005)

	// Shortened given names keep the surname anchor but lose word overlap:
	// 0.5*JW + 0.3*0.5 + 0.2*0.9 stays under the default 0.8 threshold.
	assert.Less(t, blendedSimilarity("j smith", "john smith"), 0.8)
	assert.Greater(t, blendedSimilarity("j smith", "john smith"), 0.5)

	// Unrelated names bottom out via the Jaro-Winkler floor discount.
	assert.Less(t, blendedSimilarity("nagel", "dretske"), 0.3)
}

func TestFindSimilarLengthRatioPrunes(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())
	e.StoreMapping("Jo", "Jo", 1.0)

	assert.Empty(t, e.FindSimilar("Johannes Gutenberg von Mainz"),
		"keys under half the query length are pruned")
}

func TestFindSimilarExcludesExactKey(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())
	e.StoreMapping("John Smith", "John Smith", 1.0)

	assert.Empty(t, e.FindSimilar("john smith"),
		"the query's own key is not a similarity match")
}

func TestFindSimilarOrderingAndCap(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cfg := DefaultConfig()
	cfg.SaveDelay = time.Hour
	cfg.ConfidenceThreshold = 0.5
	cfg.MaxSuggestions = 2
	e := NewEngine(store, cfg, zerolog.Nop())
	t.Cleanup(func() { _ = e.Close(context.Background()) })

	e.StoreMapping("John Smith", "John Smith", 1.0)
	e.StoreMapping("Jon Smith", "Jon Smith", 1.0)
	e.StoreMapping("Johan Smith", "Johan Smith", 1.0)
	// Bump usage so ties have a deterministic winner.
	_, ok := e.GetMapping("John Smith")
	require.True(t, ok)

	matches := e.FindSimilar("Johnn Smith")
	require.Len(t, matches, 2, "results are capped at MaxSuggestions")
	for i := 1; i < len(matches); i++ {
		if matches[i-1].Confidence == matches[i].Confidence {
			assert.GreaterOrEqual(t, matches[i-1].UsageCount, matches[i].UsageCount)
		} else {
			assert.Greater(t, matches[i-1].Confidence, matches[i].Confidence)
		}
	}
}

func TestWordOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"john smith", "john smith", 1.0},
		{"john smith", "jane smith", 0.5},
		{"john a smith", "john smith", 2.0 / 3.0},
		{"john", "smith", 0},
		{"", "john", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, wordOverlap(tt.a, tt.b), 1e-9, "%q vs %q", tt.a, tt.b)
	}
}

func TestInitialAwareScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"john smith", "john smith", 1.0},
		{"j smith", "john smith", 0.9},
		{"smith", "john smith", 0.7},
		{"jane smith", "john smith", 0.3},
		{"john smith", "john doe", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, initialAwareScore(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}
