package v1

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"product-search/internal/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// fakeSearch pages products whose titles contain the query.
type fakeSearch struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	pageSize int
	limits   []int
}

func newFakeSearch(titles ...string) *fakeSearch {
	f := &fakeSearch{pageSize: 2}
	for i, title := range titles {
		f.products = append(f.products, domain.Product{ID: i + 1, Title: title, Price: float64(10 * (i + 1))})
	}
	return f
}

func (f *fakeSearch) Search(ctx context.Context, query string, page, limit int) (domain.ProductResponse, domain.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return domain.ProductResponse{}, domain.Pagination{}, f.err
	}

	q := domain.ProductQuery{Query: query, Page: page, Limit: limit}.Normalize(f.pageSize)
	var matched []domain.Product
	for _, p := range f.products {
		if domain.TitleMatches(p.Title, q.Term()) {
			matched = append(matched, p)
		}
	}
	out := []domain.Product{}
	if skip := q.Skip(); skip < len(matched) {
		out = matched[skip:min(skip+q.Limit, len(matched))]
	}
	return domain.ProductResponse{Products: out, Total: len(matched), Skip: q.Skip(), Limit: q.Limit},
		domain.NewPagination(q.Page, q.Limit, len(matched)), nil
}

func (f *fakeSearch) Suggest(ctx context.Context, query string) ([]domain.Product, error) {
	resp, _, err := f.Search(ctx, query, 1, f.pageSize)
	if err != nil {
		return nil, err
	}
	if (domain.ProductQuery{Query: query}).Term() == "" {
		return []domain.Product{}, nil
	}
	return resp.Products, nil
}

func (f *fakeSearch) PageSize() int {
	return f.pageSize
}

func (f *fakeSearch) fail() {
	f.mu.Lock()
	f.err = fmt.Errorf("status 503: %w", domain.ErrFetchFailed)
	f.mu.Unlock()
}

type envelope[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Meta    domain.Pagination `json:"meta"`
	Error   string            `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
