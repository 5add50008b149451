package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, StorageBackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "./data/zner", cfg.Storage.Path)

	assert.Equal(t, 0.8, cfg.Engine.ConfidenceThreshold)
	assert.Equal(t, 5, cfg.Engine.MaxSuggestions)
	assert.Equal(t, 100, cfg.Engine.SaveBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Engine.SaveDelay)
	assert.Equal(t, 5000, cfg.Engine.ParseCacheSize)
	assert.Equal(t, 250, cfg.Engine.ProgressInterval)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "zotero_ner", cfg.Metrics.Namespace)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ZNER_SERVER_HTTP_PORT", "9999")
	t.Setenv("ZNER_STORAGE_BACKEND", "memory")
	t.Setenv("ZNER_LOGGING_LEVEL", "debug")
	t.Setenv("ZNER_ENGINE_MAX_SUGGESTIONS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Engine.MaxSuggestions)
}

func TestDatabasePasswordFromEnvOnly(t *testing.T) {
	t.Setenv("ZNER_DATABASE_PASSWORD", "hunter2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestDSN(t *testing.T) {
	t.Parallel()

	db := DatabaseConfig{
		Host:           "db.internal",
		Port:           5432,
		User:           "zner",
		Password:       "p@ss/word",
		Name:           "zotero_ner",
		SSLMode:        SSLModeRequire,
		ConnectTimeout: 10 * time.Second,
	}
	dsn := db.DSN()
	assert.Contains(t, dsn, "postgres://zner:")
	assert.Contains(t, dsn, "@db.internal:5432/zotero_ner")
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "connect_timeout=10")
	assert.NotContains(t, dsn, "p@ss/word", "password must be URL-escaped")
}

func TestHTTPAddress(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.HTTPAddress())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }},
		{"badger without path", func(c *Config) { c.Storage.Path = "" }},
		{"threshold above one", func(c *Config) { c.Engine.ConfidenceThreshold = 1.5 }},
		{"zero suggestions", func(c *Config) { c.Engine.MaxSuggestions = 0 }},
		{"zero batch size", func(c *Config) { c.Engine.SaveBatchSize = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"postgres without host", func(c *Config) {
			c.Storage.Backend = StorageBackendPostgres
			c.Database.Host = ""
		}},
		{"postgres conn bounds", func(c *Config) {
			c.Storage.Backend = StorageBackendPostgres
			c.Database.MaxConns = 1
			c.Database.MinConns = 5
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
