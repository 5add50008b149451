// Package learning persists name-normalization decisions: accepted
// raw-to-normalized mappings, explicit "these are different people"
// rejections, and skipped suggestions. Decisions recorded here are never
// re-asked by the clustering engine.
//
// Writes are batched: they accumulate until either the batch-size ceiling
// is reached or a quiescence delay elapses with no further writes,
// whichever comes first. Reads vastly outnumber writes during a scan, and
// flushing on every usage bump would dominate runtime. ForceSave flushes
// immediately and must run before shutdown.
package learning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/cache"
	"github.com/milekpl/zotero-ner/internal/domain"
)

// Storage keys for the three persisted tables.
const (
	keyMappings      = "zner:mappings"
	keyDistinctPairs = "zner:distinct_pairs"
	keySkipDecisions = "zner:skip_decisions"
)

// Config holds the learning engine's tunables.
type Config struct {
	// ConfidenceThreshold is the minimum blended score FindSimilar keeps.
	ConfidenceThreshold float64
	// MaxSuggestions caps the number of FindSimilar results.
	MaxSuggestions int
	// SaveBatchSize is the number of pending writes that forces a flush.
	SaveBatchSize int
	// SaveDelay is the quiescence window after the last write before a
	// deferred flush fires.
	SaveDelay time.Duration
	// KeyCacheSize bounds the canonical-key cache.
	KeyCacheSize int
	// SimilarityCacheSize bounds the pairwise-similarity cache.
	SimilarityCacheSize int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.8,
		MaxSuggestions:      5,
		SaveBatchSize:       100,
		SaveDelay:           5 * time.Second,
		KeyCacheSize:        2000,
		SimilarityCacheSize: 5000,
	}
}

// Engine is the durable mapping/rejection store. Construct it with
// NewEngine and close it with Close so pending writes reach the store.
type Engine struct {
	store  Store
	cfg    Config
	logger zerolog.Logger

	mu         sync.Mutex
	mappings   map[string]*domain.LearningMapping
	pairs      map[string]domain.DistinctPairRecord
	skips      map[string]struct{}
	pending    int
	flushTimer *time.Timer

	keyCache *cache.Bounded[string, string]
	simCache *cache.Bounded[string, float64]

	now func() time.Time
}

// NewEngine creates a learning engine backed by store. Stored state is
// loaded eagerly; a failing store is logged and treated as empty so that
// analysis can proceed with mappings starting fresh.
func NewEngine(store Store, cfg Config, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = def.MaxSuggestions
	}
	if cfg.SaveBatchSize <= 0 {
		cfg.SaveBatchSize = def.SaveBatchSize
	}
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = def.SaveDelay
	}
	if cfg.KeyCacheSize <= 0 {
		cfg.KeyCacheSize = def.KeyCacheSize
	}
	if cfg.SimilarityCacheSize <= 0 {
		cfg.SimilarityCacheSize = def.SimilarityCacheSize
	}

	e := &Engine{
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "learning").Logger(),
		mappings: make(map[string]*domain.LearningMapping),
		pairs:    make(map[string]domain.DistinctPairRecord),
		skips:    make(map[string]struct{}),
		keyCache: cache.NewBounded[string, string](cfg.KeyCacheSize),
		simCache: cache.NewBounded[string, float64](cfg.SimilarityCacheSize),
		now:      time.Now,
	}
	e.load()
	return e
}

// CanonicalKey returns the lookup identity for a raw name: lowercase,
// periods and commas stripped, whitespace collapsed. It is never used for
// display.
func (e *Engine) CanonicalKey(raw string) string {
	if key, ok := e.keyCache.Get(raw); ok {
		return key
	}
	key := Canonicalize(raw)
	e.keyCache.Put(raw, key)
	return key
}

// Canonicalize computes the lookup identity of a raw name without going
// through an engine's key cache.
func Canonicalize(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), " ")
}

// StoreMapping upserts a raw-to-normalized mapping. Confidence is kept at
// its maximum, the usage count is incremented, and context labels are
// merged. The write is batched, not flushed synchronously.
func (e *Engine) StoreMapping(raw, normalized string, confidence float64, contexts ...string) {
	key := e.CanonicalKey(raw)
	if key == "" {
		return
	}
	now := e.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.mappings[key]
	if !ok {
		m = &domain.LearningMapping{
			Raw:        raw,
			Normalized: normalized,
			Confidence: confidence,
			UsageCount: 1,
			Timestamp:  now,
			LastUsed:   now,
		}
		e.mappings[key] = m
	} else {
		m.Normalized = normalized
		if confidence > m.Confidence {
			m.Confidence = confidence
		}
		m.UsageCount++
		m.LastUsed = now
	}
	m.Context = mergeContexts(m.Context, contexts)

	e.markDirtyLocked()
}

// GetMapping returns the normalized form recorded for raw, if any. A hit
// also records usage, with the same write batching as StoreMapping.
func (e *Engine) GetMapping(raw string) (string, bool) {
	key := e.CanonicalKey(raw)

	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.mappings[key]
	if !ok {
		return "", false
	}
	m.UsageCount++
	m.LastUsed = e.now()
	e.markDirtyLocked()
	return m.Normalized, true
}

// MappingCount returns the number of stored mappings.
func (e *Engine) MappingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.mappings)
}

// RecordDistinctPair persists the host's decision that nameA and nameB
// denote different people within scope. The operation is idempotent and
// order-independent.
func (e *Engine) RecordDistinctPair(nameA, nameB, scope string) {
	key := e.pairKey(nameA, nameB, scope)
	if key == "" {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.pairs[key]; ok {
		return
	}
	e.pairs[key] = domain.DistinctPairRecord{
		Scope:     scope,
		NameA:     nameA,
		NameB:     nameB,
		Timestamp: e.now(),
	}
	e.markDirtyLocked()
}

// IsDistinctPair reports whether the pair was previously rejected within
// scope.
func (e *Engine) IsDistinctPair(nameA, nameB, scope string) bool {
	key := e.pairKey(nameA, nameB, scope)
	if key == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pairs[key]
	return ok
}

func (e *Engine) pairKey(nameA, nameB, scope string) string {
	a, b := e.CanonicalKey(nameA), e.CanonicalKey(nameB)
	if a == "" || b == "" || a == b {
		return ""
	}
	if a > b {
		a, b = b, a
	}
	return scope + "|" + a + "|" + b
}

// RecordSkip persists the decision to stop suggesting the (surname,
// given-name pattern) combination.
func (e *Engine) RecordSkip(surname, pattern string) {
	h := skipHash(Canonicalize(surname), Canonicalize(pattern))

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.skips[h]; ok {
		return
	}
	e.skips[h] = struct{}{}
	e.markDirtyLocked()
}

// IsSkipped reports whether the (surname, pattern) combination was skipped.
func (e *Engine) IsSkipped(surname, pattern string) bool {
	h := skipHash(Canonicalize(surname), Canonicalize(pattern))
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.skips[h]
	return ok
}

func skipHash(surname, pattern string) string {
	sum := sha256.Sum256([]byte(surname + "\x00" + pattern))
	return hex.EncodeToString(sum[:])
}

// ForceSave flushes all pending writes immediately. It must be called
// before shutdown.
func (e *Engine) ForceSave(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == 0 {
		return nil
	}
	return e.flushLocked(ctx)
}

// Close flushes pending writes and stops the deferred-flush timer.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.flushTimer != nil {
		e.flushTimer.Stop()
		e.flushTimer = nil
	}
	if e.pending == 0 {
		return nil
	}
	return e.flushLocked(ctx)
}

// markDirtyLocked registers one pending write and either flushes (batch
// ceiling reached) or re-arms the quiescence timer. Callers must hold e.mu.
func (e *Engine) markDirtyLocked() {
	e.pending++
	if e.pending >= e.cfg.SaveBatchSize {
		if err := e.flushLocked(context.Background()); err != nil {
			e.logger.Warn().Err(err).Msg("batched flush failed; state kept in memory")
		}
		return
	}
	if e.flushTimer == nil {
		e.flushTimer = time.AfterFunc(e.cfg.SaveDelay, e.deferredFlush)
	} else {
		e.flushTimer.Reset(e.cfg.SaveDelay)
	}
}

func (e *Engine) deferredFlush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == 0 {
		return
	}
	if err := e.flushLocked(context.Background()); err != nil {
		e.logger.Warn().Err(err).Msg("deferred flush failed; state kept in memory")
	}
}

// flushLocked serializes the three tables and writes them to the store.
// Callers must hold e.mu.
func (e *Engine) flushLocked(ctx context.Context) error {
	blobs := map[string][]byte{}

	mappingsBlob, err := marshalMappings(e.mappings)
	if err != nil {
		return err
	}
	blobs[keyMappings] = mappingsBlob

	pairsBlob, err := marshalPairs(e.pairs)
	if err != nil {
		return err
	}
	blobs[keyDistinctPairs] = pairsBlob

	skipsBlob, err := marshalSkips(e.skips)
	if err != nil {
		return err
	}
	blobs[keySkipDecisions] = skipsBlob

	for _, key := range []string{keyMappings, keyDistinctPairs, keySkipDecisions} {
		if err := e.store.Set(ctx, key, blobs[key]); err != nil {
			return domain.NewStorageError("set", key, err)
		}
	}

	e.pending = 0
	if e.flushTimer != nil {
		e.flushTimer.Stop()
	}
	e.logger.Debug().
		Int("mappings", len(e.mappings)).
		Int("distinct_pairs", len(e.pairs)).
		Int("skip_decisions", len(e.skips)).
		Msg("learning state flushed")
	return nil
}

// load reads persisted state. Any storage failure is logged and the
// affected table starts empty; a missing key is the normal first-run case.
func (e *Engine) load() {
	ctx := context.Background()

	if blob, err := e.store.Get(ctx, keyMappings); err == nil {
		m, err := unmarshalMappings(blob)
		if err != nil {
			e.logger.Warn().Err(err).Msg("corrupt mapping table; starting empty")
		} else {
			e.mappings = m
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		e.logger.Warn().Err(err).Msg("failed to load mapping table; starting empty")
	}

	if blob, err := e.store.Get(ctx, keyDistinctPairs); err == nil {
		p, err := unmarshalPairs(blob)
		if err != nil {
			e.logger.Warn().Err(err).Msg("corrupt distinct-pair table; starting empty")
		} else {
			e.pairs = p
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		e.logger.Warn().Err(err).Msg("failed to load distinct-pair table; starting empty")
	}

	if blob, err := e.store.Get(ctx, keySkipDecisions); err == nil {
		s, err := unmarshalSkips(blob)
		if err != nil {
			e.logger.Warn().Err(err).Msg("corrupt skip-decision set; starting empty")
		} else {
			e.skips = s
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		e.logger.Warn().Err(err).Msg("failed to load skip-decision set; starting empty")
	}
}

func mergeContexts(existing, added []string) []string {
	if len(added) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := existing
	for _, c := range existing {
		seen[c] = struct{}{}
	}
	for _, c := range added {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
