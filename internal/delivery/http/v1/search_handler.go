package v1

import (
	"errors"
	"net/http"

	"product-search/internal/domain"
	"product-search/pkg/logger"
	"product-search/pkg/utils"
)

type SearchHandler struct {
	searchUC domain.SearchUsecase
}

func NewSearchHandler(searchUC domain.SearchUsecase) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
	}
}

// ListProducts serves one page of the catalog; a non-empty q filters by title.
func (h *SearchHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("q")
	page := utils.ParseInt(query.Get("page"), 1)
	limit := utils.ParseInt(query.Get("limit"), h.searchUC.PageSize())

	resp, pagination, err := h.searchUC.Search(r.Context(), q, page, limit)
	if err != nil {
		writeFetchError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data:    resp.Products,
		Meta:    &pagination,
	})
}

// Suggestions serves the dropdown entries for q.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.searchUC.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeFetchError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data:    suggestions,
	})
}

func writeFetchError(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithContext(r.Context()).Error().Err(err).Msg("Search failed")
	if errors.Is(err, domain.ErrFetchFailed) {
		utils.WriteError(w, http.StatusBadGateway, "Failed to fetch products")
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, "Search failed")
}
