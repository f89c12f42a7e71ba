// Package config provides unified configuration loading for the retrieval engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retrieval engine.
type Config struct {
	Backend       BackendConfig       `yaml:"backend"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Policy        PolicyConfig        `yaml:"policy"`
	FAQ           FAQConfig           `yaml:"faq"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// BackendConfig holds catalog/review collaborator settings.
type BackendConfig struct {
	BaseURL      string        `yaml:"base_url"`
	SecondaryURL string        `yaml:"secondary_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retry_max"`
	SearchLimit  int           `yaml:"search_limit"`
}

// EmbeddingConfig holds sentence-encoder settings.
type EmbeddingConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Dimension  int           `yaml:"dimension"`
	BatchSize  int           `yaml:"batch_size"`
	Workers    int           `yaml:"workers"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryAfter time.Duration `yaml:"retry_after"` // wait before re-probing a failed encoder
}

// RetrievalConfig holds orchestrator settings.
type RetrievalConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	TopK                int     `yaml:"top_k"`
	SelectLimit         int     `yaml:"select_limit"`
	MaxReviews          int     `yaml:"max_reviews"`
	DescriptionLimit    int     `yaml:"description_limit"` // runes of description fed to the encoder
}

// PolicyConfig holds policy document store settings.
type PolicyConfig struct {
	Dir          string  `yaml:"dir"`
	ChunkSize    int     `yaml:"chunk_size"`
	ChunkOverlap int     `yaml:"chunk_overlap"`
	TopK         int     `yaml:"top_k"`
	MinScore     float64 `yaml:"min_score"`
}

// FAQConfig holds FAQ lookup settings.
type FAQConfig struct {
	MaxResults int        `yaml:"max_results"`
	Extra      []FAQEntry `yaml:"extra"` // appended to the built-in set
}

// FAQEntry is a question/answer pair.
type FAQEntry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:     "http://localhost:8000",
			Timeout:     10 * time.Second,
			RetryMax:    2,
			SearchLimit: 50,
		},
		Embedding: EmbeddingConfig{
			BaseURL:    "http://localhost:11434/v1",
			Model:      "paraphrase-multilingual-minilm-l12-v2",
			Dimension:  384,
			BatchSize:  32,
			Workers:    4,
			Timeout:    30 * time.Second,
			RetryAfter: 2 * time.Minute,
		},
		Retrieval: RetrievalConfig{
			SimilarityThreshold: 0.3,
			TopK:                10,
			SelectLimit:         3,
			MaxReviews:          5,
			DescriptionLimit:    500,
		},
		Policy: PolicyConfig{
			Dir:          "./data/policies",
			ChunkSize:    800,
			ChunkOverlap: 200, // stride = size - overlap = 600
			TopK:         2,
			MinScore:     0.2,
		},
		FAQ: FAQConfig{
			MaxResults: 3,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}

	if c.Backend.SearchLimit < 1 {
		return fmt.Errorf("backend search_limit must be positive")
	}

	if c.Embedding.Dimension < 1 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	if c.Retrieval.SimilarityThreshold < -1 || c.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be within [-1, 1]")
	}

	if c.Retrieval.SelectLimit < 1 {
		return fmt.Errorf("select_limit must be positive")
	}

	if c.Policy.ChunkSize < 1 || c.Policy.ChunkOverlap < 0 || c.Policy.ChunkOverlap >= c.Policy.ChunkSize {
		return fmt.Errorf("policy chunk_overlap must be within [0, chunk_size)")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	if v := os.Getenv("BACKEND_SECONDARY_URL"); v != "" {
		cfg.Backend.SecondaryURL = v
	}

	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}

	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("EMBEDDING_DIMENSION"); v != "" {
		if dim, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimension = dim
		}
	}

	if v := os.Getenv("POLICY_DIR"); v != "" {
		cfg.Policy.Dir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
