package usecase

import (
	"context"
	"time"

	"product-search/internal/domain"
)

type searchUsecase struct {
	fetcher     domain.CatalogFetcher
	timeout     time.Duration
	pageSize    int
	maxPageSize int
	suggestions int
}

func NewSearchUsecase(fetcher domain.CatalogFetcher, timeout time.Duration, pageSize, maxPageSize, suggestions int) domain.SearchUsecase {
	return &searchUsecase{
		fetcher:     fetcher,
		timeout:     timeout,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		suggestions: suggestions,
	}
}

func (u *searchUsecase) PageSize() int {
	return u.pageSize
}

func (u *searchUsecase) Search(ctx context.Context, query string, page, limit int) (domain.ProductResponse, domain.Pagination, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	q := domain.ProductQuery{Query: query, Page: page, Limit: limit}.Normalize(u.pageSize)
	if u.maxPageSize > 0 && q.Limit > u.maxPageSize {
		q.Limit = u.maxPageSize
	}

	resp, err := u.fetcher.Fetch(ctx, q)
	if err != nil {
		return domain.ProductResponse{}, domain.Pagination{}, err
	}

	return resp, domain.NewPagination(q.Page, q.Limit, resp.Total), nil
}

// Suggest returns the leading products of the first result page. Blank
// queries have no suggestions and never reach the catalog.
func (u *searchUsecase) Suggest(ctx context.Context, query string) ([]domain.Product, error) {
	q := domain.ProductQuery{Query: query}
	if q.Term() == "" || u.suggestions == 0 {
		return []domain.Product{}, nil
	}

	resp, _, err := u.Search(ctx, query, 1, u.pageSize)
	if err != nil {
		return nil, err
	}
	return leading(resp.Products, u.suggestions), nil
}

// leading returns a copy of at most n products from the front of products.
func leading(products []domain.Product, n int) []domain.Product {
	n = max(0, min(n, len(products)))
	out := make([]domain.Product, n)
	copy(out, products[:n])
	return out
}
