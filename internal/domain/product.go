package domain

import "strings"

// Product is a catalog item as served by the upstream product API.
type Product struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Thumbnail string  `json:"thumbnail"`
}

// ProductResponse is one page of products. Total counts every match, not just
// the products on this page.
type ProductResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// ProductQuery describes a single page request against the catalog.
type ProductQuery struct {
	Query string
	Page  int // 1-based
	Limit int
}

// Normalize clamps Page to >= 1 and replaces a non-positive Limit with defaultLimit.
func (q ProductQuery) Normalize(defaultLimit int) ProductQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	return q
}

// Skip returns the offset of the first product on the page.
// Formula: (Page - 1) * Limit.
func (q ProductQuery) Skip() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Term is the query with surrounding whitespace removed. An empty term means
// "list everything".
func (q ProductQuery) Term() string {
	return strings.TrimSpace(q.Query)
}

// TitleMatches reports whether title contains term, ignoring case.
func TitleMatches(title, term string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(term))
}
