package http

import (
	"net/http"

	v1 "product-search/internal/delivery/http/v1"
	"product-search/internal/delivery/http/web"
	"product-search/pkg/utils"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Search   *v1.SearchHandler
	Sessions *v1.SessionHandler
	Page     *web.PageHandler
	Images   *web.ImageHandler
}

// NewRouter registers the page, the JSON API and health checks.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Page
	mux.HandleFunc("GET /{$}", h.Page.Page)
	mux.HandleFunc("GET /fragment", h.Page.Fragment)
	mux.Handle("GET /images", h.Images)

	// Catalog search (Public)
	mux.HandleFunc("GET /api/v1/products", h.Search.ListProducts)
	mux.HandleFunc("GET /api/v1/products/suggestions", h.Search.Suggestions)

	// Search sessions
	mux.HandleFunc("POST /api/v1/sessions", h.Sessions.Create)
	mux.HandleFunc("GET /api/v1/sessions/{id}", h.Sessions.Get)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", h.Sessions.Delete)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/query", h.Sessions.SetQuery)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}/query", h.Sessions.ClearQuery)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/page", h.Sessions.SetPage)
	mux.HandleFunc("POST /api/v1/sessions/{id}/focus", h.Sessions.Focus)
	mux.HandleFunc("POST /api/v1/sessions/{id}/dismiss", h.Sessions.Dismiss)
	mux.HandleFunc("POST /api/v1/sessions/{id}/suggestions/{productId}", h.Sessions.SelectSuggestion)

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	return mux
}
