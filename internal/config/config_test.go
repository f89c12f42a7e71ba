package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 0.3, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 3, cfg.Retrieval.SelectLimit)
	assert.Equal(t, 800, cfg.Policy.ChunkSize)
	assert.Equal(t, 2, cfg.Policy.TopK)
	assert.Equal(t, 0.2, cfg.Policy.MinScore)
	assert.Equal(t, 3, cfg.FAQ.MaxResults)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: http://catalog:9000
  timeout: 5s
retrieval:
  select_limit: 5
policy:
  dir: /data/policies
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://catalog:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Retrieval.SelectLimit)
	assert.Equal(t, "/data/policies", cfg.Policy.Dir)

	// Untouched sections keep defaults.
	assert.Equal(t, 0.3, cfg.Retrieval.SimilarityThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://env-backend:8000")
	t.Setenv("BACKEND_SECONDARY_URL", "http://env-backup:8000")
	t.Setenv("EMBEDDING_MODEL", "custom-encoder")
	t.Setenv("EMBEDDING_DIMENSION", "512")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://env-backend:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "http://env-backup:8000", cfg.Backend.SecondaryURL)
	assert.Equal(t, "custom-encoder", cfg.Embedding.Model)
	assert.Equal(t, 512, cfg.Embedding.Dimension)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing backend url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"zero search limit", func(c *Config) { c.Backend.SearchLimit = 0 }},
		{"bad threshold", func(c *Config) { c.Retrieval.SimilarityThreshold = 2 }},
		{"zero select limit", func(c *Config) { c.Retrieval.SelectLimit = 0 }},
		{"overlap exceeds chunk size", func(c *Config) { c.Policy.ChunkOverlap = 900 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
