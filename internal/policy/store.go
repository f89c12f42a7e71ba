// Package policy stores pre-embedded chunks of store policy documents and
// answers policy questions by vector similarity with a keyword fallback.
package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
)

// Chunk is a bounded window of policy text with its embedding.
// Chunks are created once at load time and immutable thereafter.
type Chunk struct {
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// ScoredChunk pairs a chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Config tunes chunking and search.
type Config struct {
	ChunkSize    int     // window size in runes
	ChunkOverlap int     // overlap in runes, stride = size - overlap
	TopK         int
	MinScore     float64
}

// Store holds the embedded policy chunks. Populated once by Load and
// read-only afterwards, so Search needs no synchronization.
type Store struct {
	loader *embedding.Loader
	cfg    Config
	logger *observability.Logger
	chunks []Chunk
}

// NewStore creates an empty policy store.
func NewStore(loader *embedding.Loader, cfg Config, logger *observability.Logger) *Store {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 200
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 2
	}
	if cfg.MinScore == 0 {
		cfg.MinScore = 0.2
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Store{
		loader: loader,
		cfg:    cfg,
		logger: logger.WithComponent("policy-store"),
	}
}

// LoadDir reads every text document in dir, chunks it, and embeds the
// chunks. Embedding failures leave the chunks without vectors; keyword
// search still works over them.
func (s *Store) LoadDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read policy dir: %w", err)
	}

	var docs int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read policy document %s: %w", entry.Name(), err)
		}

		s.AddDocument(entry.Name(), string(data))
		docs++
	}

	s.logger.Info().
		Int("documents", docs).
		Int("chunks", len(s.chunks)).
		Msg("policy documents loaded")

	return s.embedChunks(ctx)
}

// AddDocument chunks raw text under a source id. Exposed for tests and for
// callers that own document acquisition.
func (s *Store) AddDocument(source, text string) {
	for _, window := range chunkText(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap) {
		s.chunks = append(s.chunks, Chunk{Source: source, Content: window})
	}
}

// EmbedAll embeds any chunks still missing vectors.
func (s *Store) EmbedAll(ctx context.Context) error {
	return s.embedChunks(ctx)
}

// Len returns the number of stored chunks.
func (s *Store) Len() int {
	return len(s.chunks)
}

// Search returns up to topK chunks relevant to the query, best first.
//
// Vector similarity is tried first, keeping chunks scoring at or above the
// minimum. When the encoder is unavailable or nothing clears the threshold,
// substring keyword matching over the query's content words answers on a
// best-effort basis instead.
func (s *Store) Search(ctx context.Context, query string, topK int) []ScoredChunk {
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	if len(s.chunks) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	if results := s.vectorSearch(ctx, query, topK); len(results) > 0 {
		return results
	}
	return s.keywordSearch(query, topK)
}

func (s *Store) vectorSearch(ctx context.Context, query string, topK int) []ScoredChunk {
	emb, err := s.loader.Embedder(ctx)
	if err != nil {
		return nil
	}

	queryVec, err := emb.EmbedSingle(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("policy query embedding failed")
		return nil
	}

	var results []ScoredChunk
	for _, chunk := range s.chunks {
		sim, ok := embedding.CosineSimilarity(queryVec, chunk.Embedding)
		if !ok || sim < s.cfg.MinScore {
			continue
		}
		results = append(results, ScoredChunk{Chunk: chunk, Score: sim})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

func (s *Store) keywordSearch(query string, topK int) []ScoredChunk {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(w)) > 2 {
			tokens = append(tokens, w)
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	var results []ScoredChunk
	for _, chunk := range s.chunks {
		content := strings.ToLower(chunk.Content)
		for _, tok := range tokens {
			if strings.Contains(content, tok) {
				results = append(results, ScoredChunk{Chunk: chunk})
				break
			}
		}
		if len(results) == topK {
			break
		}
	}
	return results
}

func (s *Store) embedChunks(ctx context.Context) error {
	var missing []int
	for i, chunk := range s.chunks {
		if chunk.Embedding == nil {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	emb, err := s.loader.Embedder(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("policy chunks not embedded, keyword search only")
		return nil
	}

	texts := make([]string, len(missing))
	for j, i := range missing {
		texts[j] = s.chunks[i].Content
	}

	vectors, err := emb.Embed(ctx, texts)
	if err != nil {
		s.logger.Warn().Err(err).Msg("policy chunk embedding failed, keyword search only")
		return nil
	}

	for j, i := range missing {
		s.chunks[i].Embedding = vectors[j]
	}

	s.logger.Info().Int("embedded", len(missing)).Msg("policy chunks embedded")
	return nil
}

// chunkText splits text into overlapping rune windows. Rune indexing keeps
// multi-byte Vietnamese characters intact at window boundaries.
func chunkText(text string, size, overlap int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	runes := []rune(trimmed)
	stride := size - overlap

	var windows []string
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			windows = append(windows, window)
		}
		if end == len(runes) {
			break
		}
	}
	return windows
}
