package learning

import (
	"context"
	"sync"

	"github.com/milekpl/zotero-ner/internal/domain"
)

// Store is the durable key-value byte store the learning engine persists
// its state into. The engine serializes its own state; implementations
// treat values as opaque.
//
// Get returns domain.ErrNotFound (possibly wrapped) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// MemoryStore is a map-backed Store for tests and stateless deployments.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	// SetCalls counts Set invocations, which lets tests observe flush
	// batching.
	SetCalls int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	s.SetCalls++
	return nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
