package learning

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, store Store) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	// Long quiescence delay so deferred flushes never race the assertions.
	cfg.SaveDelay = time.Hour
	e := NewEngine(store, cfg, zerolog.Nop())
	t.Cleanup(func() {
		_ = e.Close(context.Background())
	})
	return e
}

func TestCanonicalKey(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())

	tests := []struct {
		raw  string
		want string
	}{
		{"J. Smith", "j smith"},
		{"Smith, John", "smith john"},
		{"  Marta   Kowalska ", "marta kowalska"},
		{"J.R.R. Tolkien", "jrr tolkien"},
		{"MIŁKOWSKI", "miłkowski"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.CanonicalKey(tt.raw), "raw %q", tt.raw)
	}
}

func TestStoreMappingUpsert(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())

	e.StoreMapping("J. Smith", "John Smith", 0.9, "user-accept")
	e.StoreMapping("J. Smith", "John Smith", 0.7, "batch-apply")

	norm, ok := e.GetMapping("j smith")
	require.True(t, ok)
	assert.Equal(t, "John Smith", norm)

	e.mu.Lock()
	m := e.mappings["j smith"]
	e.mu.Unlock()
	require.NotNil(t, m)
	assert.Equal(t, 0.9, m.Confidence, "confidence keeps its maximum")
	assert.Equal(t, 3, m.UsageCount, "two stores plus one lookup")
	assert.ElementsMatch(t, []string{"user-accept", "batch-apply"}, m.Context)
}

func TestGetMappingMiss(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())
	_, ok := e.GetMapping("nobody")
	assert.False(t, ok)
}

func TestDistinctPairOrderIndependent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())

	e.RecordDistinctPair("Smith, John", "Smyth, John", "surname")

	assert.True(t, e.IsDistinctPair("Smith, John", "Smyth, John", "surname"))
	assert.True(t, e.IsDistinctPair("Smyth, John", "Smith, John", "surname"))
	assert.True(t, e.IsDistinctPair("smyth john", "smith john", "surname"),
		"canonical forms match the stored pair")
	assert.False(t, e.IsDistinctPair("Smith, John", "Smyth, John", "given-name:kowalski"),
		"scopes do not leak into each other")
	assert.False(t, e.IsDistinctPair("Smith, John", "Schmidt, John", "surname"))
}

func TestDistinctPairIdempotent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())

	e.RecordDistinctPair("A. Nowak", "Anna Nowak", "surname")
	e.mu.Lock()
	pendingAfterFirst := e.pending
	e.mu.Unlock()

	e.RecordDistinctPair("Anna Nowak", "A. Nowak", "surname")
	e.mu.Lock()
	pendingAfterSecond := e.pending
	e.mu.Unlock()

	assert.Equal(t, pendingAfterFirst, pendingAfterSecond,
		"re-recording an existing pair is not a write")
}

func TestSkipDecisions(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, NewMemoryStore())

	assert.False(t, e.IsSkipped("Fodor", "J."))
	e.RecordSkip("Fodor", "J.")
	assert.True(t, e.IsSkipped("Fodor", "J."))
	assert.True(t, e.IsSkipped("fodor", "j"), "skip hashes use canonical forms")
	assert.False(t, e.IsSkipped("Fodor", "Jerry"))
}

func TestBatchCeilingTriggersFlush(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	e := newTestEngine(t, store)

	// 150 writes exceed the 100-write batch ceiling once.
	for i := 0; i < 150; i++ {
		e.StoreMapping("J. Smith", "John Smith", 0.9)
	}

	store.mu.Lock()
	setCalls := store.SetCalls
	store.mu.Unlock()
	assert.GreaterOrEqual(t, setCalls, 3,
		"at least one three-key flush must happen before ForceSave")

	require.NoError(t, e.ForceSave(context.Background()))
}

func TestQuiescenceFlush(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cfg := DefaultConfig()
	cfg.SaveDelay = 10 * time.Millisecond
	e := NewEngine(store, cfg, zerolog.Nop())
	defer e.Close(context.Background())

	e.StoreMapping("J. Smith", "John Smith", 0.9)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.SetCalls >= 3
	}, time.Second, 5*time.Millisecond, "quiescence timer flushes the single pending write")
}

func TestForceSaveWithoutPendingIsNoop(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	e := newTestEngine(t, store)

	require.NoError(t, e.ForceSave(context.Background()))
	assert.Zero(t, store.SetCalls)
}

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()

	first := newTestEngine(t, store)
	first.StoreMapping("Miłkowski, M.", "Marcin Miłkowski", 0.95, "user-accept")
	first.RecordDistinctPair("Alex Martin", "Andrea Martin", "given-name:martin")
	first.RecordSkip("Fodor", "J.")
	require.NoError(t, first.ForceSave(context.Background()))

	second := newTestEngine(t, store)
	norm, ok := second.GetMapping("miłkowski m")
	require.True(t, ok)
	assert.Equal(t, "Marcin Miłkowski", norm)
	assert.True(t, second.IsDistinctPair("Andrea Martin", "Alex Martin", "given-name:martin"))
	assert.True(t, second.IsSkipped("Fodor", "J."))
	assert.Equal(t, 1, second.MappingCount())
}

func TestLoadToleratesCorruptState(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), keyMappings, []byte("{not json")))

	e := newTestEngine(t, store)
	assert.Zero(t, e.MappingCount(), "corrupt table starts empty")

	e.StoreMapping("J. Smith", "John Smith", 0.9)
	norm, ok := e.GetMapping("J. Smith")
	require.True(t, ok)
	assert.Equal(t, "John Smith", norm)
}
