package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"product-search/internal/domain"
	"product-search/internal/usecase"
	"product-search/pkg/utils"
)

// maxSettleWait bounds ?wait=true requests.
const maxSettleWait = 15 * time.Second

// SessionHandler exposes server-held search sessions: the same query,
// debounce and paging behaviour as the page, driven over JSON.
type SessionHandler struct {
	sessions *usecase.SessionManager
}

func NewSessionHandler(sessions *usecase.SessionManager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.respond(w, r, s, http.StatusCreated)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	s.SetQuery(req.Query)
	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) ClearQuery(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.Clear()
	h.respond(w, r, s, http.StatusOK)
}

// SetPage accepts either {"page": n} or {"action": "first|prev|next|last"}.
func (h *SessionHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Page   *int   `json:"page"`
		Action string `json:"action"`
	}
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	switch {
	case req.Page != nil:
		s.SetPage(*req.Page)
	case req.Action != "":
		var moved bool
		switch req.Action {
		case "first":
			moved = s.FirstPage()
		case "prev":
			moved = s.PrevPage()
		case "next":
			moved = s.NextPage()
		case "last":
			moved = s.LastPage()
		default:
			utils.WriteError(w, http.StatusBadRequest, "Unknown page action")
			return
		}
		if !moved {
			utils.WriteError(w, http.StatusConflict, "Page navigation unavailable")
			return
		}
	default:
		utils.WriteError(w, http.StatusBadRequest, "page or action required")
		return
	}

	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) Focus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.Focus()
	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s.ClickOutside()
	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	productID, err := strconv.Atoi(r.PathValue("productId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	if !s.SelectSuggestion(productID) {
		utils.WriteError(w, http.StatusNotFound, "Suggestion not found")
		return
	}
	h.respond(w, r, s, http.StatusOK)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id")); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*usecase.SearchSession, bool) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

// respond writes the session state, first waiting for it to settle when
// the request asks for ?wait=true.
func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, s *usecase.SearchSession, status int) {
	if utils.ParseBool(r.URL.Query().Get("wait")) {
		ctx, cancel := context.WithTimeout(r.Context(), maxSettleWait)
		defer cancel()
		if err := s.Wait(ctx); err != nil {
			utils.WriteError(w, http.StatusGatewayTimeout, "Search did not settle in time")
			return
		}
	}

	state := s.Snapshot()
	utils.WriteJSON(w, status, domain.Response{
		Success: true,
		Data:    state,
	})
}

func writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Search session not found")
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, err.Error())
}
