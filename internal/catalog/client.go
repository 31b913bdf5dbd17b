// =============================================================================
// Sales Analytics - Product Catalog Client
// =============================================================================
//
// This module fetches the product catalog used by the enrichment join.
//
// LOOKUP ORDER:
//   1. In-process memo (go-cache), shared by every run of one process
//   2. On-disk cache file (snappy-compressed JSON), if configured and fresh
//   3. The catalog endpoint (DummyJSON shape), bounded by a timeout
//
// FAILURE POLICY:
//   The fetch is best-effort and is attempted once. Every failure is
//   returned wrapped in ErrCatalogUnavailable; the caller is expected to
//   carry on with an empty catalog. Cache problems are logged and skipped.
//
// =============================================================================

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/logger"
	"github.com/ginjaninja78/sales-analytics/internal/types"
	"github.com/patrickmn/go-cache"
)

// ErrCatalogUnavailable wraps every failure to obtain the catalog.
var ErrCatalogUnavailable = errors.New("product catalog unavailable")

// Product is one product as returned by the catalog endpoint.
// Missing JSON fields decode as nil.
type Product struct {
	ID       *int     `json:"id"`
	Title    *string  `json:"title"`
	Category *string  `json:"category"`
	Brand    *string  `json:"brand"`
	Price    *float64 `json:"price"`
	Rating   *float64 `json:"rating"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

// Client fetches and caches the product catalog.
type Client struct {
	httpClient *http.Client
	endpoint   string
	limit      int
	cacheFile  string
	cacheTTL   time.Duration
	memo       *cache.Cache
	now        func() time.Time
}

// NewClient creates a catalog client from the catalog settings.
func NewClient(settings config.CatalogSettings) *Client {
	ttl := settings.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		httpClient: &http.Client{Timeout: settings.Timeout},
		endpoint:   settings.URL,
		limit:      settings.Limit,
		cacheFile:  settings.CacheFile,
		cacheTTL:   ttl,
		memo:       cache.New(ttl, 2*ttl),
		now:        time.Now,
	}
}

// requestURL adds the limit parameter to the endpoint.
func (c *Client) requestURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid catalog url %q: %w", c.endpoint, err)
	}
	if c.limit > 0 {
		q := u.Query()
		q.Set("limit", strconv.Itoa(c.limit))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// FetchProducts returns the catalog products, consulting the caches first.
func (c *Client) FetchProducts(ctx context.Context) ([]Product, error) {
	requestURL, err := c.requestURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	if cached, found := c.memo.Get(requestURL); found {
		logger.L.Debug("Catalog served from memory", "url", requestURL)
		return cached.([]Product), nil
	}

	if products, ok := c.readDiskCache(requestURL); ok {
		c.memo.SetDefault(requestURL, products)
		return products, nil
	}

	products, err := c.fetch(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	logger.L.Info("Fetched products from catalog", "count", len(products), "url", requestURL)
	c.memo.SetDefault(requestURL, products)
	c.writeDiskCache(requestURL, products)
	return products, nil
}

func (c *Client) fetch(ctx context.Context, requestURL string) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var body productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return body.Products, nil
}

// Load fetches the products and builds the id-keyed catalog.
func (c *Client) Load(ctx context.Context) (types.Catalog, error) {
	products, err := c.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCatalog(products), nil
}

// BuildCatalog keys products by id. Products without an id are skipped.
func BuildCatalog(products []Product) types.Catalog {
	catalog := make(types.Catalog, len(products))
	for _, p := range products {
		if p.ID == nil {
			continue
		}
		catalog[*p.ID] = types.CatalogEntry{
			Title:    p.Title,
			Category: p.Category,
			Brand:    p.Brand,
			Rating:   p.Rating,
		}
	}
	return catalog
}
