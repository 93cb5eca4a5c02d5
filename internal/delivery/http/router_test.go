package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	v1 "product-search/internal/delivery/http/v1"
	"product-search/internal/delivery/http/web"
	"product-search/internal/domain"
	memcache "product-search/internal/infrastructure/cache"
	"product-search/internal/infrastructure/catalog"
	"product-search/internal/usecase"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream serves a small dummyjson-shaped catalog.
func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	var products []domain.Product
	for i := 1; i <= 12; i++ {
		title := fmt.Sprintf("Lamp %d", i)
		if i%4 == 0 {
			title = fmt.Sprintf("Desk Chair %d", i)
		}
		products = append(products, domain.Product{ID: i, Title: title, Price: float64(i)})
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		matched := products
		if r.URL.Path == "/products/search" {
			matched = nil
			for _, p := range products {
				if strings.Contains(strings.ToLower(p.Title), strings.ToLower(q.Get("q"))) {
					matched = append(matched, p)
				}
			}
		}
		page := matched
		if limit, _ := strconv.Atoi(q.Get("limit")); limit > 0 {
			skip, _ := strconv.Atoi(q.Get("skip"))
			page = matched[min(skip, len(matched)):min(skip+limit, len(matched))]
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.ProductResponse{Products: page, Total: len(matched)})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *http.ServeMux {
	t.Helper()
	searchUC := usecase.NewSearchUsecase(catalog.NewClient(upstream(t).URL, 5*time.Second), 5*time.Second, 5, 20, 3)
	sessions := usecase.NewSessionManager(searchUC, memcache.NewMemoryCache(time.Minute, time.Minute), usecase.SessionOptions{
		Debounce:    10 * time.Millisecond,
		Suggestions: 3,
	}, time.Minute)
	t.Cleanup(sessions.Shutdown)

	tmpl, err := web.ParseTemplates()
	require.NoError(t, err)

	return NewRouter(Handlers{
		Search:   v1.NewSearchHandler(searchUC),
		Sessions: v1.NewSessionHandler(sessions),
		Page:     web.NewPageHandler(searchUC, tmpl, 400*time.Millisecond, 3),
		Images:   web.NewImageHandler(nil, []string{"cdn.dummyjson.com"}, 1200, 80),
	})
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	mux := newTestRouter(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := serve(mux, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestProductsEndToEnd(t *testing.T) {
	mux := newTestRouter(t)

	rec := serve(mux, http.MethodGet, "/api/v1/products?q=chair&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []domain.Product  `json:"data"`
		Meta domain.Pagination `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "Desk Chair 4", resp.Data[0].Title)
	assert.EqualValues(t, 3, resp.Meta.TotalItems)
	assert.Equal(t, 1, resp.Meta.TotalPages)

	rec = serve(mux, http.MethodGet, "/api/v1/products?page=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Lamp 11", resp.Data[0].Title)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestSessionEndToEnd(t *testing.T) {
	mux := newTestRouter(t)

	rec := serve(mux, http.MethodPost, "/api/v1/sessions?wait=true", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data domain.SessionState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 12, created.Data.Total)
	assert.Len(t, created.Data.Products, 5)

	rec = serve(mux, http.MethodPut, "/api/v1/sessions/"+created.Data.ID+"/query?wait=true", `{"query":"desk"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Data domain.SessionState `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 3, updated.Data.Total)
	assert.Len(t, updated.Data.Suggestions, 3)
	assert.False(t, updated.Data.Pager.Visible)

	rec = serve(mux, http.MethodDelete, "/api/v1/sessions/"+created.Data.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPageRoutes(t *testing.T) {
	mux := newTestRouter(t)

	rec := serve(mux, http.MethodGet, "/?q=lamp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lamp 1")

	rec = serve(mux, http.MethodGet, "/fragment?q=lamp&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lamp 7")

	rec = serve(mux, http.MethodGet, "/images?url=https://evil.example.com/x.png", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(mux, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
