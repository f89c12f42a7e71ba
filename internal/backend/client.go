package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/phonify-ai/retrieval-engine/internal/observability"
)

// Config holds backend client settings.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryMax    int
	SearchLimit int
}

// Client fetches products and reviews from the catalog service.
//
// Every fetch degrades to an empty result on error: the catalog being
// unreachable or slow must never fail a retrieval request.
type Client struct {
	http        *retryablehttp.Client
	baseURL     string
	searchLimit int
	logger      *observability.Logger
}

// NewClient creates a backend client for one base endpoint.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}
	if logger == nil {
		logger = observability.Nop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = nil

	return &Client{
		http:        rc,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		searchLimit: cfg.SearchLimit,
		logger:      logger.WithComponent("backend"),
	}, nil
}

// BaseURL returns the endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// productsEnvelope tolerates both response shapes the backend has shipped:
// {"data": {"products": [...]}} and {"products": [...]}.
type productsEnvelope struct {
	Data struct {
		Products []Product `json:"products"`
	} `json:"data"`
	Products []Product `json:"products"`
}

type reviewsEnvelope struct {
	Data struct {
		Reviews []Review `json:"reviews"`
	} `json:"data"`
	Reviews []Review `json:"reviews"`
}

// SearchProducts fetches up to limit products matching the search term.
// An empty term returns a broad unfiltered page. Errors and timeouts
// degrade to an empty slice.
func (c *Client) SearchProducts(ctx context.Context, term string, limit int) []Product {
	if limit <= 0 {
		limit = c.searchLimit
	}

	params := url.Values{}
	if term != "" {
		params.Set("search", term)
	}
	params.Set("limit", strconv.Itoa(limit))

	var envelope productsEnvelope
	if err := c.getJSON(ctx, "/api/v1/internal/products/search", params, &envelope); err != nil {
		c.logger.Warn().Err(err).Str("term", term).Msg("product search failed")
		return nil
	}

	products := envelope.Data.Products
	if len(products) == 0 {
		products = envelope.Products
	}

	c.logger.Debug().
		Str("term", term).
		Int("count", len(products)).
		Msg("product search")

	if len(products) > limit {
		products = products[:limit]
	}
	return products
}

// SearchReviews fetches reviews matching the given keywords. Errors degrade
// to an empty slice.
func (c *Client) SearchReviews(ctx context.Context, keywords []string) []Review {
	if len(keywords) == 0 {
		return nil
	}

	params := url.Values{}
	params.Set("search", strings.Join(keywords, " "))

	var envelope reviewsEnvelope
	if err := c.getJSON(ctx, "/api/v1/internal/reviews/search", params, &envelope); err != nil {
		c.logger.Warn().Err(err).Strs("keywords", keywords).Msg("review search failed")
		return nil
	}

	reviews := envelope.Data.Reviews
	if len(reviews) == 0 {
		reviews = envelope.Reviews
	}
	return reviews
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
