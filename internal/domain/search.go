package domain

import "context"

// CatalogFetcher loads a page of products from the upstream catalog (or a test double).
type CatalogFetcher interface {
	Fetch(ctx context.Context, q ProductQuery) (ProductResponse, error)
}

type SearchUsecase interface {
	Search(ctx context.Context, query string, page, limit int) (ProductResponse, Pagination, error)
	Suggest(ctx context.Context, query string) ([]Product, error)
	PageSize() int
}
