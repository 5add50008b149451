package pgstore

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milekpl/zotero-ner/internal/domain"
)

func newTestStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return New(mock, zerolog.Nop()), mock
}

func TestStore_Get(t *testing.T) {
	t.Run("returns stored value", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
			WithArgs("zner:mappings").
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow([]byte(`[["a",{}]]`)))

		value, err := store.Get(context.Background(), "zner:mappings")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[["a",{}]]`), value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing key maps to ErrNotFound", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
			WithArgs("zner:skip_decisions").
			WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(context.Background(), "zner:skip_decisions")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure maps to ErrStorage", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectQuery(`SELECT value FROM kv_entries WHERE key = \$1`).
			WithArgs("zner:mappings").
			WillReturnError(errors.New("connection reset"))

		_, err := store.Get(context.Background(), "zner:mappings")
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Set(t *testing.T) {
	t.Run("upserts value", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec(`INSERT INTO kv_entries`).
			WithArgs("zner:distinct_pairs", []byte(`[]`)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := store.Set(context.Background(), "zner:distinct_pairs", []byte(`[]`))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec failure maps to ErrStorage", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec(`INSERT INTO kv_entries`).
			WithArgs("zner:mappings", []byte(`[]`)).
			WillReturnError(errors.New("deadlock detected"))

		err := store.Set(context.Background(), "zner:mappings", []byte(`[]`))
		assert.ErrorIs(t, err, domain.ErrStorage)

		var storageErr *domain.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "set", storageErr.Op)
		assert.Equal(t, "zner:mappings", storageErr.Key)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Remove(t *testing.T) {
	t.Run("deletes key", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec(`DELETE FROM kv_entries WHERE key = \$1`).
			WithArgs("zner:mappings").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := store.Remove(context.Background(), "zner:mappings")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent key is not an error", func(t *testing.T) {
		store, mock := newTestStore(t)

		mock.ExpectExec(`DELETE FROM kv_entries WHERE key = \$1`).
			WithArgs("zner:unknown").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := store.Remove(context.Background(), "zner:unknown")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
