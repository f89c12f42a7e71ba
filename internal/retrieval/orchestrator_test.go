package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/cache"
	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/faq"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
	"github.com/phonify-ai/retrieval-engine/internal/policy"
)

// stubCatalog serves canned products keyed by search term.
type stubCatalog struct {
	base     string
	byTerm   map[string][]backend.Product
	reviews  []backend.Review
	searches []string
}

func (s *stubCatalog) SearchProducts(ctx context.Context, term string, limit int) []backend.Product {
	s.searches = append(s.searches, term)
	return s.byTerm[term]
}

func (s *stubCatalog) SearchReviews(ctx context.Context, keywords []string) []backend.Review {
	return s.reviews
}

func (s *stubCatalog) BaseURL() string { return s.base }

// constantEmbedder gives every text the same vector, so every similarity
// is 1.0 and threshold selection keeps everything.
type constantEmbedder struct{}

func (constantEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (constantEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (constantEmbedder) Model() string  { return "constant" }
func (constantEmbedder) Dimension() int { return 3 }

type downEmbedder struct{}

func (downEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}

func (downEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (downEmbedder) Model() string  { return "down" }
func (downEmbedder) Dimension() int { return 3 }

func newTestRetriever(t *testing.T, emb embedding.Embedder, primary, secondary Catalog) *Retriever {
	t.Helper()
	loader := embedding.NewLoader(emb, time.Minute, observability.Nop())
	idx := embedding.NewIndex(loader, cache.NewVectorCache(emb.Model()), embedding.IndexConfig{DescriptionLimit: 500}, observability.Nop())
	store := policy.NewStore(loader, policy.Config{}, observability.Nop())
	store.AddDocument("warranty.txt", "Sản phẩm được bảo hành 12 tháng tại trung tâm ủy quyền.")
	return NewRetriever(primary, secondary, idx, store, faq.NewCatalog(nil, 3), Options{}, observability.Nop())
}

func samsungCatalog() *stubCatalog {
	phones := []backend.Product{
		{ID: "s1", Name: "Samsung Galaxy A15", Category: "Điện thoại", Price: 9_500_000, StockQuantity: 5},
		{ID: "s2", Name: "Samsung Galaxy A35", Category: "Điện thoại", Price: 11_000_000, StockQuantity: 3},
		{ID: "s3", Name: "Samsung Galaxy S23 FE", Category: "Điện thoại", Price: 12_900_000, StockQuantity: 2},
		{ID: "s4", Name: "Samsung Galaxy S24", Category: "Điện thoại", Price: 16_900_000, StockQuantity: 7},
		{ID: "s5", Name: "Samsung Galaxy S24 Ultra", Category: "Điện thoại", Price: 22_000_000, StockQuantity: 1},
	}
	return &stubCatalog{
		base:    "http://primary",
		byTerm:  map[string][]backend.Product{"": phones, "samsung": phones},
		reviews: []backend.Review{{ProductID: "s4", Rating: 4.8, Comment: "Màn hình đẹp"}},
	}
}

func TestRetriever_PurchaseFlowWithPrice(t *testing.T) {
	catalog := samsungCatalog()
	r := newTestRetriever(t, constantEmbedder{}, catalog, nil)

	got := r.Retrieve(context.Background(), "tìm điện thoại samsung khoảng 15 triệu")

	// The around band plus closest-distance selection picks 16.9M then
	// 12.9M; 22M and 9.5M fall outside every stage.
	require.Len(t, got.Products, 2)
	assert.Equal(t, "s4", got.Products[0].ID)
	assert.Equal(t, "s3", got.Products[1].ID)

	assert.Equal(t, "samsung", got.ResolvedSearchTerm)
	assert.True(t, got.Intent.IsPurchase)
	assert.Len(t, got.Reviews, 1)
}

func TestRetriever_KeywordFallbackWhenEncoderDown(t *testing.T) {
	catalog := samsungCatalog()
	r := newTestRetriever(t, downEmbedder{}, catalog, nil)

	got := r.Retrieve(context.Background(), "tìm điện thoại samsung khoảng 15 triệu")

	// Ranking is unavailable, so the chain re-queries the catalog with the
	// resolved term and still answers.
	assert.Contains(t, catalog.searches, "samsung")
	require.NotEmpty(t, got.Products)
	for _, p := range got.Products {
		assert.Contains(t, p.Name, "Samsung")
	}
}

func TestRetriever_BrandNeverSubstituted(t *testing.T) {
	catalog := samsungCatalog()
	// A nokia search wrongly answered with Samsung phones must not leak
	// them into the result.
	catalog.byTerm["nokia"] = catalog.byTerm[""]
	secondary := &stubCatalog{base: "http://secondary", byTerm: map[string][]backend.Product{
		"nokia": catalog.byTerm[""],
	}}

	r := newTestRetriever(t, constantEmbedder{}, catalog, secondary)

	got := r.Retrieve(context.Background(), "mua nokia khoảng 5 triệu")

	assert.Empty(t, got.Products)
}

func TestRetriever_SecondaryEndpointAnswersBrandSearch(t *testing.T) {
	catalog := samsungCatalog()
	catalog.byTerm["nokia"] = nil
	nokia := backend.Product{ID: "n1", Name: "Nokia G42", Category: "Điện thoại", Price: 4_500_000}
	secondary := &stubCatalog{base: "http://secondary", byTerm: map[string][]backend.Product{
		"nokia": {nokia},
	}}

	r := newTestRetriever(t, constantEmbedder{}, catalog, secondary)

	got := r.Retrieve(context.Background(), "mua nokia khoảng 5 triệu")

	require.Len(t, got.Products, 1)
	assert.Equal(t, "n1", got.Products[0].ID)
}

func TestRetriever_NonProductMessageSkipsCatalog(t *testing.T) {
	catalog := &stubCatalog{base: "http://primary", byTerm: map[string][]backend.Product{}}
	r := newTestRetriever(t, constantEmbedder{}, catalog, nil)

	got := r.Retrieve(context.Background(), "chào buổi sáng")

	assert.Empty(t, got.Products)
	assert.Empty(t, catalog.searches)
}

func TestRetriever_PolicyAndFAQ(t *testing.T) {
	catalog := samsungCatalog()
	r := newTestRetriever(t, constantEmbedder{}, catalog, nil)

	got := r.Retrieve(context.Background(), "chính sách bảo hành của shop thế nào")

	require.NotEmpty(t, got.Policies)
	assert.Equal(t, "warranty.txt", got.Policies[0].Chunk.Source)
	require.NotEmpty(t, got.FAQs)
}

func TestRetriever_EmptyChainIsValidTerminalState(t *testing.T) {
	catalog := &stubCatalog{base: "http://primary", byTerm: map[string][]backend.Product{}}
	r := newTestRetriever(t, downEmbedder{}, catalog, nil)

	got := r.Retrieve(context.Background(), "mua điện thoại dưới 5 triệu")

	assert.Empty(t, got.Products)
	assert.True(t, len(got.Reviews) == 0)
	assert.NotNil(t, got)
}

func TestContext_Format(t *testing.T) {
	c := &Context{
		Query: "samsung khoảng 15 triệu",
		Products: []backend.Product{
			{Name: "Samsung Galaxy S24", Price: 16_900_000, StockQuantity: 7, Category: "Điện thoại"},
			{Name: "Samsung Galaxy S23 FE", Price: 12_900_000},
		},
		Reviews:  []backend.Review{{Rating: 4.8, Comment: "Màn hình đẹp"}},
		FAQs:     []faq.Entry{{Question: "bảo hành", Answer: "12 tháng"}},
		Policies: []policy.ScoredChunk{{Chunk: policy.Chunk{Source: "warranty.txt", Content: "Bảo hành 12 tháng."}}},
	}

	text := c.Format()

	assert.Contains(t, text, "Samsung Galaxy S24")
	assert.Contains(t, text, "16,900,000 VNĐ")
	assert.Contains(t, text, "(16.9 triệu đồng)")
	assert.Contains(t, text, "hết hàng")
	assert.Contains(t, text, "[warranty.txt]")
	assert.Contains(t, text, "(4.8/5)")
	assert.Contains(t, text, "Hỏi: bảo hành")
}

func TestContext_Empty(t *testing.T) {
	assert.True(t, (&Context{Query: "x"}).Empty())
	assert.False(t, (&Context{Products: []backend.Product{{}}}).Empty())
}
