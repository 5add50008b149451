package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("fails with nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/some/path", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database is required")
	})

	t.Run("fails with nil pool", func(t *testing.T) {
		db := &DB{pool: nil}
		migrator, err := NewMigrator(db, "/some/path", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool not initialized")
	})

	t.Run("fails with empty migrations path", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		migrator, err := NewMigrator(db, "", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "migrations path is required")
	})

	t.Run("fails with invalid migrations path", func(t *testing.T) {
		if testing.Short() {
			t.Skip("Skipping integration test in short mode")
		}

		db := setupTestDB(t)
		defer db.Close()

		migrator, err := NewMigrator(db, "/nonexistent/path", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "migrations path validation failed")
	})
}

// TestMigrator_UpDown applies the key-value schema and rolls it back
// against a live database.
func TestMigrator_UpDown(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	logger := zerolog.Nop()
	migrationsPath := getMigrationsPath(t)

	migrator, err := NewMigrator(db, migrationsPath, logger)
	require.NoError(t, err)
	defer migrator.Close()

	t.Run("up applies or confirms migrations", func(t *testing.T) {
		assert.NoError(t, migrator.Up())
	})

	t.Run("up is idempotent", func(t *testing.T) {
		assert.NoError(t, migrator.Up())
	})

	t.Run("version reports applied state", func(t *testing.T) {
		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.GreaterOrEqual(t, version, uint(1))
	})

	t.Run("down rolls migrations back", func(t *testing.T) {
		assert.NoError(t, migrator.Down())
	})
}

func TestMigrator_Steps(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	migrator, err := NewMigrator(db, getMigrationsPath(t), zerolog.Nop())
	require.NoError(t, err)
	defer migrator.Close()

	t.Run("stepping past the last migration is a no-op", func(t *testing.T) {
		require.NoError(t, migrator.Up())
		assert.NoError(t, migrator.Steps(1))
	})
}

func TestMigrator_Close(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	migrator, err := NewMigrator(db, getMigrationsPath(t), zerolog.Nop())
	require.NoError(t, err)

	assert.NoError(t, migrator.Close())
}

// getMigrationsPath returns the path to the migrations directory at the
// repository root.
func getMigrationsPath(t *testing.T) string {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	migrationsPath := filepath.Join(cwd, "..", "..", "migrations")
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		t.Skipf("Skipping test: migrations directory not found at %s", migrationsPath)
	}

	return migrationsPath
}
