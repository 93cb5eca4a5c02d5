package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"product-search/internal/domain"
	"product-search/pkg/logger"

	"github.com/goccy/go-json"
)

// productFields limits the upstream payload to what a product card needs.
const productFields = "id,title,price,thumbnail"

// DefaultLimit is the page size used when a query does not set one.
const DefaultLimit = 8

// Client fetches products from a dummyjson-compatible catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a catalog client rooted at baseURL (e.g. https://dummyjson.com).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP is NewClient with a caller supplied http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

var _ domain.CatalogFetcher = (*Client)(nil)

// Fetch loads one page of products.
//
// A blank query lists the catalog with native skip/limit paging. A non-blank
// query asks the search endpoint for every match, keeps only products whose
// title contains the query (case-insensitive) and pages the result locally,
// because the upstream search also matches descriptions and tags.
func (c *Client) Fetch(ctx context.Context, q domain.ProductQuery) (domain.ProductResponse, error) {
	q = q.Normalize(DefaultLimit)
	term := q.Term()
	skip := q.Skip()

	if term == "" {
		data, err := c.get(ctx, c.listURL(q.Limit, skip))
		if err != nil {
			return domain.ProductResponse{}, err
		}
		// The upstream clamps skip to the total; report what was asked for.
		data.Skip = skip
		data.Limit = q.Limit
		return data, nil
	}

	data, err := c.get(ctx, c.searchURL(term))
	if err != nil {
		return domain.ProductResponse{}, err
	}

	filtered := make([]domain.Product, 0, len(data.Products))
	for _, p := range data.Products {
		if domain.TitleMatches(p.Title, term) {
			filtered = append(filtered, p)
		}
	}

	return domain.ProductResponse{
		Products: pageOf(filtered, skip, q.Limit),
		Total:    len(filtered),
		Skip:     skip,
		Limit:    q.Limit,
	}, nil
}

func (c *Client) listURL(limit, skip int) string {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(limit))
	v.Set("skip", strconv.Itoa(skip))
	v.Set("select", productFields)
	return c.baseURL + "/products?" + v.Encode()
}

// searchURL requests the full match set; limit=0 disables upstream paging.
func (c *Client) searchURL(term string) string {
	v := url.Values{}
	v.Set("q", term)
	v.Set("limit", "0")
	v.Set("skip", "0")
	v.Set("select", productFields)
	return c.baseURL + "/products/search?" + v.Encode()
}

func (c *Client) get(ctx context.Context, rawURL string) (domain.ProductResponse, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.ProductResponse{}, fmt.Errorf("create catalog request: %v: %w", err, domain.ErrFetchFailed)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("catalog request: %v: %w", err, domain.ErrFetchFailed)
		logger.UpstreamCall(ctx, rawURL, 0, time.Since(start), err)
		return domain.ProductResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("catalog returned status %d: %w", resp.StatusCode, domain.ErrFetchFailed)
		logger.UpstreamCall(ctx, rawURL, resp.StatusCode, time.Since(start), err)
		return domain.ProductResponse{}, err
	}

	var data domain.ProductResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		err = fmt.Errorf("decode catalog response: %v: %w", err, domain.ErrFetchFailed)
		logger.UpstreamCall(ctx, rawURL, resp.StatusCode, time.Since(start), err)
		return domain.ProductResponse{}, err
	}
	if data.Products == nil {
		data.Products = []domain.Product{}
	}

	logger.UpstreamCall(ctx, rawURL, resp.StatusCode, time.Since(start), nil)
	return data, nil
}

// pageOf returns products[skip : skip+limit], clipped to the slice bounds.
func pageOf(products []domain.Product, skip, limit int) []domain.Product {
	if skip >= len(products) {
		return []domain.Product{}
	}
	end := min(skip+limit, len(products))
	return products[skip:end]
}
