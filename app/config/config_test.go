package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "csv", cfg.Dataset.Source)
	assert.Equal(t, 0.70, cfg.Matching.FuzzyThreshold)
	assert.Equal(t, 100, cfg.Matching.MaxLimit)
	assert.Equal(t, 8.0, cfg.Geo.NeighbourRadiusKm)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.Meilisearch.Enabled)

	mc := cfg.MatcherConfig()
	assert.Equal(t, 0.60, mc.PhoneticSimilarity)
	assert.True(t, mc.EnableFuzzy)
	assert.Equal(t, 500.0, cfg.ProximityConfig().MaxRadiusKm)
	assert.Equal(t, "locations", cfg.SourceConfig().DuckDBTable)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
dataset:
  source: duckdb
  reload_interval: 5m
matching:
  fuzzy_threshold: 1.7
cache:
  size: 50
`)
	t.Setenv("MATCHING_DEFAULT_LIMIT", "20")
	t.Setenv("GEO_MAX_RADIUS_KM", "250")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Dataset.Source)
	assert.Equal(t, 5*time.Minute, cfg.Dataset.ReloadInterval)
	assert.Equal(t, 1.0, cfg.Matching.FuzzyThreshold, "threshold is clamped to [0,1]")
	assert.Equal(t, 50, cfg.Cache.Size)
	assert.Equal(t, 20, cfg.Matching.DefaultLimit)
	assert.Equal(t, 250.0, cfg.Geo.MaxRadiusKm)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"unknown source", func(c *Config) { c.Dataset.Source = "sqlite" }, "dataset.source"},
		{"max below default", func(c *Config) { c.Matching.MaxLimit = 5 }, "matching.max_limit"},
		{"negative cache", func(c *Config) { c.Cache.Size = -1 }, "cache.size"},
		{"radius above max", func(c *Config) { c.Geo.DefaultRadiusKm = 900 }, "geo.default_radius_km"},
		{"bad h3", func(c *Config) { c.Geo.H3Resolution = 16 }, "geo.h3_resolution"},
		{"bad batch", func(c *Config) { c.Meilisearch.Enabled = true; c.Meilisearch.BatchSize = 0 }, "meilisearch.batch_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(AppConfig{Env: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(1))

	_, err = NewLogger(AppConfig{LogLevel: "loud"})
	assert.Error(t, err)
}
