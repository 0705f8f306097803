package contractor

import (
	"context"
	"net/http"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, actor *internal.User, filter ListFilter) (*ContractorsResponse, error)
	Get(ctx context.Context, actor *internal.User, id int64) (*Detail, error)
	Create(ctx context.Context, actor *internal.User, dto CreateContractorDTO) (*Contractor, error)
	Update(ctx context.Context, actor *internal.User, id int64, dto UpdateContractorDTO) (*UpdateResult, error)
	Delete(ctx context.Context, actor *internal.User, id int64) error
	SetVisibility(ctx context.Context, actor *internal.User, id int64, dto VisibilityDTO) (*Contractor, error)

	ListFiles(ctx context.Context, actor *internal.User, contractorID int64) ([]*File, error)
	RegisterFile(ctx context.Context, actor *internal.User, contractorID int64, dto RegisterFileDTO) (*File, error)
	DeleteFile(ctx context.Context, actor *internal.User, contractorID, fileID int64) error

	CreateSuggestion(ctx context.Context, actor *internal.User, contractorID int64, dto CreateSuggestionDTO) (*Suggestion, error)
	GetSuggestion(ctx context.Context, actor *internal.User, id int64) (*Suggestion, error)
	ListContractorSuggestions(ctx context.Context, actor *internal.User, contractorID int64, filter SuggestionFilter) ([]*Suggestion, error)
	ListSuggestions(ctx context.Context, actor *internal.User, mine bool, filter SuggestionFilter) ([]*Suggestion, error)
	Approve(ctx context.Context, actor *internal.User, id int64, dto ReviewDTO) (*Suggestion, error)
	Reject(ctx context.Context, actor *internal.User, id int64, dto ReviewDTO) (*Suggestion, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListContractors handles GET /contractors?status=&city_id=&manager_id=&q=
func (h *Handler) ListContractors(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	filter := ListFilter{
		Status: Status(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))),
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
	}
	var err error
	if filter.CityID, err = transport.QueryInt64(r, "city_id"); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if filter.ManagerID, err = transport.QueryInt64(r, "manager_id"); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	filter.Limit, filter.Offset = transport.ParsePagination(r)

	resp, err := h.Service.List(r.Context(), user, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetContractor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	detail, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, detail)
}

func (h *Handler) CreateContractor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	var dto CreateContractorDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.Create(r.Context(), user, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

// UpdateContractor handles PUT /contractors/{id}. It answers 200 with the
// contractor, or 201 with a suggestion when the change was filed for review.
func (h *Handler) UpdateContractor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateContractorDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.Update(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if result.Suggestion != nil {
		h.WriteJSON(w, http.StatusCreated, result.Suggestion)
		return
	}
	h.WriteJSON(w, http.StatusOK, result.Contractor)
}

func (h *Handler) DeleteContractor(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetVisibility handles PATCH /contractors/{id}/visibility
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto VisibilityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.SetVisibility(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	files, err := h.Service.ListFiles(r.Context(), user, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, FilesResponse{Files: files})
}

func (h *Handler) RegisterFile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto RegisterFileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	f, err := h.Service.RegisterFile(r.Context(), user, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	fileID, err := transport.ParseIDParam(r, "fileID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.DeleteFile(r.Context(), user, id, fileID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
