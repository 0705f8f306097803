package contractor

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

// CreateSuggestion handles POST /contractors/{id}/suggestions
func (h *Handler) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CreateSuggestionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sug, err := h.Service.CreateSuggestion(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sug)
}

// ListContractorSuggestions handles GET /contractors/{id}/suggestions?status=
func (h *Handler) ListContractorSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filter := suggestionFilter(r)
	items, err := h.Service.ListContractorSuggestions(r.Context(), user, id, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: items, Limit: filter.Limit, Offset: filter.Offset})
}

// ListSuggestions handles GET /suggestions?status=&mine=
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	filter := suggestionFilter(r)
	items, err := h.Service.ListSuggestions(r.Context(), user, transport.QueryBool(r, "mine"), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: items, Limit: filter.Limit, Offset: filter.Offset})
}

func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	sug, err := h.Service.GetSuggestion(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sug)
}

// ApproveSuggestion handles POST /suggestions/{id}/approve
func (h *Handler) ApproveSuggestion(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// RejectSuggestion handles POST /suggestions/{id}/reject
func (h *Handler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	// the body is optional
	var dto ReviewDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
	}

	review := h.Service.Reject
	if approve {
		review = h.Service.Approve
	}
	sug, err := review(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sug)
}

func suggestionFilter(r *http.Request) SuggestionFilter {
	filter := SuggestionFilter{
		Status: SuggestionStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))),
	}
	filter.Limit, filter.Offset = transport.ParsePagination(r)
	return filter
}
