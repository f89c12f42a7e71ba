package embedding

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/cache"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
)

// ScoredProduct pairs a product with its similarity to a query.
type ScoredProduct struct {
	Product backend.Product
	Score   float64
}

// IndexConfig tunes the ranking index.
type IndexConfig struct {
	BatchSize        int
	Workers          int
	DescriptionLimit int
}

// Index ranks products against a query by cosine similarity, caching product
// embeddings across requests.
type Index struct {
	loader *Loader
	cache  *cache.VectorCache
	cfg    IndexConfig
	logger *observability.Logger
}

// NewIndex creates a ranking index.
func NewIndex(loader *Loader, vc *cache.VectorCache, cfg IndexConfig, logger *observability.Logger) *Index {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Index{
		loader: loader,
		cache:  vc,
		cfg:    cfg,
		logger: logger.WithComponent("embedding-index"),
	}
}

// Rank scores products against the query and returns them ordered by
// similarity, best first. Ties and equal scores keep the input order.
//
// When the encoder is unavailable the input order is preserved and every
// score is zero; ranking degrades, retrieval does not fail.
func (idx *Index) Rank(ctx context.Context, query string, products []backend.Product, topK int) ([]ScoredProduct, error) {
	scored := make([]ScoredProduct, len(products))
	for i, p := range products {
		scored[i] = ScoredProduct{Product: p}
	}

	if len(products) == 0 || query == "" {
		return truncate(scored, topK), nil
	}

	emb, err := idx.loader.Embedder(ctx)
	if err != nil {
		idx.logger.Warn().Err(err).Msg("ranking degraded to backend order")
		return truncate(scored, topK), err
	}

	queryVec, err := emb.EmbedSingle(ctx, query)
	if err != nil {
		idx.logger.Warn().Err(err).Msg("query embedding failed, keeping backend order")
		return truncate(scored, topK), err
	}

	vectors, err := idx.productVectors(ctx, emb, products)
	if err != nil {
		idx.logger.Warn().Err(err).Msg("product embedding failed, keeping backend order")
		return truncate(scored, topK), err
	}

	for i := range scored {
		if sim, ok := CosineSimilarity(queryVec, vectors[i]); ok {
			scored[i].Score = sim
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	return truncate(scored, topK), nil
}

// productVectors returns one embedding per product, consulting the cache and
// embedding misses in bounded parallel batches.
func (idx *Index) productVectors(ctx context.Context, emb Embedder, products []backend.Product) ([][]float32, error) {
	vectors := make([][]float32, len(products))

	var missIdx []int
	for i, p := range products {
		if vec, err := idx.cache.Get(p.ID); err == nil {
			vectors[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) == 0 {
		return vectors, nil
	}

	idx.logger.Debug().
		Int("total", len(products)).
		Int("misses", len(missIdx)).
		Msg("embedding uncached products")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.cfg.Workers)

	for start := 0; start < len(missIdx); start += idx.cfg.BatchSize {
		end := start + idx.cfg.BatchSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		batch := missIdx[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for j, i := range batch {
				texts[j] = products[i].EmbeddingText(idx.cfg.DescriptionLimit)
			}

			embs, err := emb.Embed(gctx, texts)
			if err != nil {
				return err
			}

			for j, i := range batch {
				vectors[i] = embs[j]
				idx.cache.Put(products[i].ID, embs[j])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

func truncate(scored []ScoredProduct, topK int) []ScoredProduct {
	if topK > 0 && len(scored) > topK {
		return scored[:topK]
	}
	return scored
}
