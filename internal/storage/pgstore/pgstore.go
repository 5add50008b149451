// Package pgstore implements the learning state store on top of a
// PostgreSQL kv_entries table.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/database"
	"github.com/milekpl/zotero-ner/internal/domain"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/observability"
)

// DBTX is the database interface supporting both pool and transaction
// contexts.
type DBTX = database.DBTX

// Compile-time interface verification.
var _ learning.Store = (*Store)(nil)

// Store persists opaque values keyed by string in the kv_entries table.
// It is safe for concurrent use; the underlying pool handles connection
// synchronization.
type Store struct {
	db     DBTX
	logger zerolog.Logger
}

// New creates a PostgreSQL-backed store.
func New(db DBTX, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "pgstore").Logger(),
	}
}

// Get retrieves the value stored under key. It returns domain.ErrNotFound
// when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE key = $1`

	var value []byte
	if err := s.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.NewStorageError("get", key, err)
	}

	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return domain.NewStorageError("set", key, err)
	}

	storeLogger := observability.WithStorageContext(s.logger, "postgres", key)
	storeLogger.Trace().
		Int("bytes", len(value)).
		Msg("stored entry")
	return nil
}

// Remove deletes the value stored under key. Removing an absent key is
// not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	query := `
		DELETE FROM kv_entries
		WHERE key = $1`

	if _, err := s.db.Exec(ctx, query, key); err != nil {
		return domain.NewStorageError("remove", key, err)
	}

	return nil
}
