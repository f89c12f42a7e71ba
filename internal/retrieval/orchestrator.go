package retrieval

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phonify-ai/retrieval-engine/internal/backend"
	"github.com/phonify-ai/retrieval-engine/internal/embedding"
	"github.com/phonify-ai/retrieval-engine/internal/faq"
	"github.com/phonify-ai/retrieval-engine/internal/intent"
	"github.com/phonify-ai/retrieval-engine/internal/observability"
	"github.com/phonify-ai/retrieval-engine/internal/policy"
	"github.com/phonify-ai/retrieval-engine/internal/pricing"
)

// Catalog is the product and review collaborator.
type Catalog interface {
	SearchProducts(ctx context.Context, term string, limit int) []backend.Product
	SearchReviews(ctx context.Context, keywords []string) []backend.Review
	BaseURL() string
}

// Options tunes the retrieval chain.
type Options struct {
	SimilarityThreshold float64 // minimum cosine score to keep a ranked product
	TopK                int     // ranked candidates kept before brand/price filtering
	SelectLimit         int     // products shown after price selection
	MaxReviews          int
	SearchLimit         int // candidate page size fetched from the catalog
}

// Retriever runs the full retrieval chain for one customer message.
type Retriever struct {
	primary   Catalog
	secondary Catalog // optional second endpoint, may be nil
	index     *embedding.Index
	policies  *policy.Store
	faqs      *faq.Catalog
	opts      Options
	logger    *observability.Logger
}

// NewRetriever wires the retrieval chain together. secondary may be nil.
func NewRetriever(primary, secondary Catalog, index *embedding.Index, policies *policy.Store, faqs *faq.Catalog, opts Options, logger *observability.Logger) *Retriever {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = 0.3
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.SelectLimit <= 0 {
		opts.SelectLimit = pricing.DefaultSelectLimit
	}
	if opts.MaxReviews <= 0 {
		opts.MaxReviews = 5
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 50
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Retriever{
		primary:   primary,
		secondary: secondary,
		index:     index,
		policies:  policies,
		faqs:      faqs,
		opts:      opts,
		logger:    logger.WithComponent("retriever"),
	}
}

// Retrieve assembles the context for one message. It never fails: every
// upstream or embedding error degrades to a smaller context, and an empty
// context after the full fallback chain is a valid terminal state.
func (r *Retriever) Retrieve(ctx context.Context, message string) *Context {
	requestID := uuid.NewString()
	log := r.logger.WithRequest(requestID)

	in := intent.ExtractIntent(message)
	term := intent.ResolveSearchTerm(message)

	log.Debug().
		Bool("purchase", in.IsPurchase).
		Str("brand", in.BrandPhrase).
		Str("price_condition", in.PriceCondition.String()).
		Int64("price_value", in.PriceValue).
		Str("search_term", term).
		Msg("intent extracted")

	out := &Context{
		Query:              message,
		ResolvedSearchTerm: term,
		Intent:             in,
	}

	if intent.ShouldSearchProducts(message) {
		out.Products = r.resolveProducts(ctx, log, message, term, in)
	}

	if keywords := intent.Keywords(message); len(keywords) > 0 {
		reviews := r.primary.SearchReviews(ctx, keywords)
		if len(reviews) > r.opts.MaxReviews {
			reviews = reviews[:r.opts.MaxReviews]
		}
		out.Reviews = reviews
	}

	if r.faqs != nil {
		out.FAQs = r.faqs.Lookup(message)
	}

	if r.policies != nil && intent.ShouldSearchPolicies(message) {
		out.Policies = r.policies.Search(ctx, message, 0)
	}

	log.Info().
		Int("products", len(out.Products)).
		Int("reviews", len(out.Reviews)).
		Int("faqs", len(out.FAQs)).
		Int("policies", len(out.Policies)).
		Msg("context assembled")

	return out
}

// resolveProducts runs the product half of the chain: broad fetch, price
// pre-filter, vector ranking with keyword fallback, brand filter with
// scoped retries, and final price selection.
func (r *Retriever) resolveProducts(ctx context.Context, log *observability.Logger, message, term string, in intent.PurchaseIntent) []backend.Product {
	candidates := r.primary.SearchProducts(ctx, "", r.opts.SearchLimit)
	candidates = pricing.PreFilterByPrice(candidates, in.PriceCondition, in.PriceValue)

	products := r.rankOrFallback(ctx, log, message, term, in, candidates)

	if in.BrandPhrase != "" {
		products = r.filterByBrand(ctx, log, products, in.BrandPhrase)
	}

	if in.PriceValue > 0 {
		products = pricing.SelectByPrice(products, in.PriceCondition, in.PriceValue, r.opts.SelectLimit)
	}

	return products
}

// rankOrFallback ranks candidates semantically and falls back to a keyword
// search against the catalog when ranking is unavailable or comes up empty.
func (r *Retriever) rankOrFallback(ctx context.Context, log *observability.Logger, message, term string, in intent.PurchaseIntent, candidates []backend.Product) []backend.Product {
	if len(candidates) > 0 {
		ranked, err := r.index.Rank(ctx, message, candidates, r.opts.TopK)
		if err == nil {
			if kept := r.selectByThreshold(ranked); len(kept) > 0 {
				log.Debug().Int("count", len(kept)).Msg("vector ranking selected products")
				return kept
			}
		} else {
			log.Warn().Err(err).Msg("vector ranking unavailable, using keyword search")
		}
	}

	keyword := r.primary.SearchProducts(ctx, term, r.opts.SearchLimit)
	keyword = pricing.PreFilterByPrice(keyword, in.PriceCondition, in.PriceValue)
	log.Debug().Str("term", term).Int("count", len(keyword)).Msg("keyword fallback")
	return keyword
}

// selectByThreshold keeps ranked products scoring at or above the
// threshold. When candidates exist but none clear it, the top three by raw
// similarity survive instead; a non-empty ranked set never selects down to
// nothing.
func (r *Retriever) selectByThreshold(ranked []embedding.ScoredProduct) []backend.Product {
	var kept []backend.Product
	for _, sp := range ranked {
		if sp.Score >= r.opts.SimilarityThreshold {
			kept = append(kept, sp.Product)
		}
	}
	if len(kept) > 0 || len(ranked) == 0 {
		return kept
	}

	n := 3
	if n > len(ranked) {
		n = len(ranked)
	}
	kept = make([]backend.Product, 0, n)
	for _, sp := range ranked[:n] {
		kept = append(kept, sp.Product)
	}
	return kept
}

// filterByBrand keeps products whose name or category contains the brand
// token. When that empties the set, a keyword search scoped to the brand is
// retried on the primary and then on a distinct secondary endpoint. A brand
// search that still finds nothing returns empty: substituting another
// brand's products would put words in the customer's mouth.
func (r *Retriever) filterByBrand(ctx context.Context, log *observability.Logger, products []backend.Product, brandPhrase string) []backend.Product {
	brand := strings.Fields(brandPhrase)[0]

	matched := matchBrand(products, brand)
	if len(matched) > 0 {
		return matched
	}

	log.Debug().Str("brand", brand).Msg("brand filter emptied results, retrying brand-scoped search")

	retry := r.primary.SearchProducts(ctx, brand, r.opts.SearchLimit)
	if matched = matchBrand(retry, brand); len(matched) > 0 {
		return matched
	}

	if r.secondary != nil && r.secondary.BaseURL() != r.primary.BaseURL() {
		retry = r.secondary.SearchProducts(ctx, brand, r.opts.SearchLimit)
		if matched = matchBrand(retry, brand); len(matched) > 0 {
			log.Debug().Str("brand", brand).Msg("secondary endpoint answered brand search")
			return matched
		}
	}

	log.Info().Str("brand", brand).Msg("no products for requested brand")
	return nil
}

func matchBrand(products []backend.Product, brand string) []backend.Product {
	var out []backend.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), brand) ||
			strings.Contains(strings.ToLower(p.Category), brand) {
			out = append(out, p)
		}
	}
	return out
}
