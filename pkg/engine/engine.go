// Package engine provides the public entrypoint for embedding the retrieval
// core into another process. It wires configuration into the retrieval
// chain and exposes a single Retrieve call.
package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/cache"
	"github.com/phonify-ai/retrieval-engine/internal/config"
	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/faq"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
	"github.com/phonify-ai/retrieval-engine/internal/policy"
	"github.com/phonify-ai/retrieval-engine/internal/retrieval"
)

// Options tunes engine construction beyond the configuration file.
type Options struct {
	// Embedder overrides the configured encoder client. Tests pass
	// embedding.NewMockClient here.
	Embedder embedding.Embedder
	// Logger defaults to a logger built from the config when nil.
	Logger *observability.Logger
	// SkipPolicyLoad leaves the policy store empty even when the
	// configured directory exists.
	SkipPolicyLoad bool
}

// Engine is the assembled retrieval core.
type Engine struct {
	retriever *retrieval.Retriever
	policies  *policy.Store
	logger    *observability.Logger
}

// New builds an Engine from configuration. The policy directory is loaded
// when it exists; a missing directory is not an error, policy search just
// answers empty.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "retrieval-engine",
		})
	}

	emb := opts.Embedder
	if emb == nil {
		client, err := embedding.NewClient(embedding.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding client: %w", err)
		}
		emb = client
	}

	loader := embedding.NewLoader(emb, cfg.Embedding.RetryAfter, logger)
	index := embedding.NewIndex(loader, cache.NewVectorCache(emb.Model()), embedding.IndexConfig{
		BatchSize:        cfg.Embedding.BatchSize,
		Workers:          cfg.Embedding.Workers,
		DescriptionLimit: cfg.Retrieval.DescriptionLimit,
	}, logger)

	store := policy.NewStore(loader, policy.Config{
		ChunkSize:    cfg.Policy.ChunkSize,
		ChunkOverlap: cfg.Policy.ChunkOverlap,
		TopK:         cfg.Policy.TopK,
		MinScore:     cfg.Policy.MinScore,
	}, logger)

	if !opts.SkipPolicyLoad {
		if _, err := os.Stat(cfg.Policy.Dir); err == nil {
			if err := store.LoadDir(ctx, cfg.Policy.Dir); err != nil {
				return nil, fmt.Errorf("load policy documents: %w", err)
			}
		}
	}

	primary, err := backend.NewClient(backend.Config{
		BaseURL:     cfg.Backend.BaseURL,
		Timeout:     cfg.Backend.Timeout,
		RetryMax:    cfg.Backend.RetryMax,
		SearchLimit: cfg.Backend.SearchLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	var secondary retrieval.Catalog
	if cfg.Backend.SecondaryURL != "" && cfg.Backend.SecondaryURL != cfg.Backend.BaseURL {
		sc, err := backend.NewClient(backend.Config{
			BaseURL:     cfg.Backend.SecondaryURL,
			Timeout:     cfg.Backend.Timeout,
			RetryMax:    cfg.Backend.RetryMax,
			SearchLimit: cfg.Backend.SearchLimit,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("create secondary backend client: %w", err)
		}
		secondary = sc
	}

	var extra []faq.Entry
	for _, e := range cfg.FAQ.Extra {
		extra = append(extra, faq.Entry{Question: e.Question, Answer: e.Answer})
	}

	retriever := retrieval.NewRetriever(primary, secondary, index, store,
		faq.NewCatalog(extra, cfg.FAQ.MaxResults),
		retrieval.Options{
			SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
			TopK:                cfg.Retrieval.TopK,
			SelectLimit:         cfg.Retrieval.SelectLimit,
			MaxReviews:          cfg.Retrieval.MaxReviews,
			SearchLimit:         cfg.Backend.SearchLimit,
		}, logger)

	return &Engine{retriever: retriever, policies: store, logger: logger}, nil
}

// Retrieve runs the full retrieval chain for one customer message.
func (e *Engine) Retrieve(ctx context.Context, message string) *retrieval.Context {
	return e.retriever.Retrieve(ctx, message)
}

// PolicyChunks returns how many policy chunks are loaded.
func (e *Engine) PolicyChunks() int {
	return e.policies.Len()
}
