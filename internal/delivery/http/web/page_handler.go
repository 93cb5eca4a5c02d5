package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"product-search/internal/domain"
	"product-search/pkg/logger"
	"product-search/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// thumbnailWidth is the card image width requested from the optimiser.
const thumbnailWidth = 400

var funcs = template.FuncMap{
	"thumb": func(src string) string {
		if src == "" {
			return ""
		}
		return "/images?w=" + strconv.Itoa(thumbnailWidth) + "&url=" + url.QueryEscape(src)
	},
	"price": func(p float64) string {
		return strconv.FormatFloat(p, 'f', -1, 64)
	},
	"pageURL": func(q string, page int) string {
		v := url.Values{}
		if q != "" {
			v.Set("q", q)
		}
		if page > 1 {
			v.Set("page", strconv.Itoa(page))
		}
		if len(v) == 0 {
			return "/"
		}
		return "/?" + v.Encode()
	},
	"add": func(a, b int) int { return a + b },
}

// ParseTemplates loads the embedded page templates.
func ParseTemplates() (*template.Template, error) {
	return template.New("web").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

type pageView struct {
	domain.SessionState
	DebounceMillis int64
}

// PageHandler renders the search page. Each request runs one search for
// its q and page parameters; the embedded script debounces typing and swaps
// in /fragment responses.
type PageHandler struct {
	searchUC    domain.SearchUsecase
	tmpl        *template.Template
	debounce    time.Duration
	suggestions int
}

func NewPageHandler(searchUC domain.SearchUsecase, tmpl *template.Template, debounce time.Duration, suggestions int) *PageHandler {
	return &PageHandler{
		searchUC:    searchUC,
		tmpl:        tmpl,
		debounce:    debounce,
		suggestions: suggestions,
	}
}

// Page serves the full document.
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "page")
}

// Fragment serves only the suggestions and results markup.
func (h *PageHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "fragment")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string) {
	view := h.search(r)

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, view); err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("template", name).Msg("Template render failed")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if view.Error != "" {
		w.WriteHeader(http.StatusBadGateway)
	}
	_, _ = buf.WriteTo(w)
}

func (h *PageHandler) search(r *http.Request) pageView {
	q := r.URL.Query().Get("q")
	page := utils.ParseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}

	resp, pagination, err := h.searchUC.Search(r.Context(), q, page, h.searchUC.PageSize())
	if err == nil && pagination.TotalPages > 0 && page > pagination.TotalPages {
		// Past the last page: show the last page instead of an empty grid.
		page = pagination.TotalPages
		resp, pagination, err = h.searchUC.Search(r.Context(), q, page, h.searchUC.PageSize())
	}

	state := domain.SessionState{
		Query:    q,
		Page:     page,
		Products: []domain.Product{},
	}
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Str("query", q).Int("page", page).Msg("Search failed")
		state.Error = domain.FetchErrorMessage
	} else {
		state.Products = resp.Products
		state.Total = resp.Total
		state.TotalPages = pagination.TotalPages
		if (domain.ProductQuery{Query: q}).Term() != "" {
			n := min(h.suggestions, len(resp.Products))
			state.Suggestions = resp.Products[:max(n, 0)]
			state.Open = true
		}
	}
	state.Pager = domain.NewPager(state.Page, state.TotalPages, len(state.Products), false)

	return pageView{SessionState: state, DebounceMillis: h.debounce.Milliseconds()}
}
