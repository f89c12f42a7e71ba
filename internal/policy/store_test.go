package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
)

func newTestStore(t *testing.T, emb embedding.Embedder) *Store {
	t.Helper()
	loader := embedding.NewLoader(emb, time.Minute, observability.Nop())
	return NewStore(loader, Config{ChunkSize: 100, ChunkOverlap: 20, TopK: 2, MinScore: 0.2}, observability.Nop())
}

func TestChunkText_OverlappingWindows(t *testing.T) {
	text := strings.Repeat("a", 250)

	windows := chunkText(text, 100, 20)

	// Stride 80: windows start at 0, 80, 160, 240.
	require.Len(t, windows, 4)
	assert.Len(t, windows[0], 100)
	assert.Len(t, windows[3], 10)
}

func TestChunkText_RuneSafe(t *testing.T) {
	// Vietnamese text full of multi-byte runes must split on rune
	// boundaries, not byte boundaries.
	text := strings.Repeat("đổi trả hàng trong vòng bảy ngày ", 20)

	for _, window := range chunkText(text, 50, 10) {
		assert.True(t, len([]rune(window)) <= 50)
		assert.Truef(t, strings.ContainsAny(window, "đổitrả"), "window %q", window)
	}
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, chunkText("   ", 100, 20))
}

func TestStore_LoadDirAndSearch(t *testing.T) {
	dir := t.TempDir()
	warranty := "Chính sách bảo hành: sản phẩm được bảo hành 12 tháng tại các trung tâm ủy quyền."
	shipping := "Chính sách giao hàng: miễn phí giao hàng toàn quốc cho đơn từ 2 triệu."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warranty.txt"), []byte(warranty), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shipping.md"), []byte(shipping), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.pdf"), []byte("binary"), 0o644))

	store := newTestStore(t, embedding.NewMockClient(64))
	require.NoError(t, store.LoadDir(context.Background(), dir))

	assert.Equal(t, 2, store.Len())

	results := store.Search(context.Background(), "bảo hành bao lâu", 2)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)
}

func TestStore_LoadDirMissing(t *testing.T) {
	store := newTestStore(t, embedding.NewMockClient(64))

	err := store.LoadDir(context.Background(), "/nonexistent/policies")
	assert.Error(t, err)
}

func TestStore_KeywordFallbackWhenEncoderDown(t *testing.T) {
	store := newTestStore(t, failingEmbedder{})
	store.AddDocument("warranty.txt", "Sản phẩm được bảo hành 12 tháng.")
	store.AddDocument("returns.txt", "Đổi trả miễn phí trong 7 ngày.")
	require.NoError(t, store.EmbedAll(context.Background()))

	results := store.Search(context.Background(), "thời gian bảo hành", 2)

	require.Len(t, results, 1)
	assert.Equal(t, "warranty.txt", results[0].Chunk.Source)
	assert.Zero(t, results[0].Score)
}

func TestStore_SearchEmptyQuery(t *testing.T) {
	store := newTestStore(t, embedding.NewMockClient(64))
	store.AddDocument("doc.txt", "nội dung chính sách")

	assert.Nil(t, store.Search(context.Background(), "  ", 2))
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, context.DeadlineExceeded
}

func (failingEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return nil, context.DeadlineExceeded
}

func (failingEmbedder) Model() string  { return "failing" }
func (failingEmbedder) Dimension() int { return 8 }
