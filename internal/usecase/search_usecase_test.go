package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"product-search/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher is an in-memory CatalogFetcher that pages titles matching the query.
type fakeFetcher struct {
	mu       sync.Mutex
	products []domain.Product
	err      error
	queries  []domain.ProductQuery
	deadline bool // set when the last call carried a deadline
}

func newFakeFetcher(n int) *fakeFetcher {
	f := &fakeFetcher{}
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("Gadget %d", i)
		if i%3 == 0 {
			title = fmt.Sprintf("Smart Phone %d", i)
		}
		f.products = append(f.products, domain.Product{ID: i, Title: title, Price: float64(i)})
	}
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, q domain.ProductQuery) (domain.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return domain.ProductResponse{}, f.err
	}

	var matched []domain.Product
	for _, p := range f.products {
		if domain.TitleMatches(p.Title, q.Term()) {
			matched = append(matched, p)
		}
	}
	skip := q.Skip()
	page := []domain.Product{}
	if skip < len(matched) {
		page = matched[skip:min(skip+q.Limit, len(matched))]
	}
	return domain.ProductResponse{Products: page, Total: len(matched), Skip: skip, Limit: q.Limit}, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func (f *fakeFetcher) last() domain.ProductQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func TestSearchNormalizesPaging(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -2, 8, 1, 8},
		{"explicit", 3, 8, 3, 8},
		{"limit above max", 1, 500, 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher(10)
			uc := NewSearchUsecase(fetcher, time.Second, 20, 100, 6)

			_, pagination, err := uc.Search(context.Background(), "", tt.page, tt.limit)
			require.NoError(t, err)

			q := fetcher.last()
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantLimit, q.Limit)
			assert.Equal(t, (tt.wantPage-1)*tt.wantLimit, q.Skip())
			assert.Equal(t, tt.wantPage, pagination.Page)
			assert.Equal(t, tt.wantLimit, pagination.Limit)
			assert.True(t, fetcher.deadline)
		})
	}
}

func TestSearchPagination(t *testing.T) {
	fetcher := newFakeFetcher(45)
	uc := NewSearchUsecase(fetcher, 0, 20, 100, 6)

	resp, pagination, err := uc.Search(context.Background(), "", 3, 20)
	require.NoError(t, err)
	assert.Len(t, resp.Products, 5)
	assert.Equal(t, int64(45), pagination.TotalItems)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.False(t, fetcher.deadline)
}

func TestSearchPropagatesFetchError(t *testing.T) {
	fetcher := newFakeFetcher(1)
	fetcher.err = fmt.Errorf("catalog returned status 500: %w", domain.ErrFetchFailed)
	uc := NewSearchUsecase(fetcher, time.Second, 20, 100, 6)

	_, _, err := uc.Search(context.Background(), "phone", 1, 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
}

func TestSuggest(t *testing.T) {
	fetcher := newFakeFetcher(60)
	uc := NewSearchUsecase(fetcher, time.Second, 20, 100, 6)

	suggestions, err := uc.Suggest(context.Background(), "phone")
	require.NoError(t, err)
	require.Len(t, suggestions, 6)
	for _, p := range suggestions {
		assert.Contains(t, p.Title, "Phone")
	}
	assert.Equal(t, 1, fetcher.last().Page)

	before := fetcher.calls()
	suggestions, err = uc.Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.NotNil(t, suggestions)
	assert.Equal(t, before, fetcher.calls(), "blank queries must not reach the catalog")
}

func TestSuggestFewerMatches(t *testing.T) {
	fetcher := newFakeFetcher(7)
	uc := NewSearchUsecase(fetcher, time.Second, 20, 100, 6)

	suggestions, err := uc.Suggest(context.Background(), "phone")
	require.NoError(t, err)
	assert.Len(t, suggestions, 2)
}

func TestLeadingCopies(t *testing.T) {
	products := []domain.Product{{ID: 1}, {ID: 2}, {ID: 3}}
	out := leading(products, 2)
	require.Len(t, out, 2)
	out[0].ID = 99
	assert.Equal(t, 1, products[0].ID)
	assert.Empty(t, leading(products, -1))
	assert.Len(t, leading(products, 10), 3)
}
