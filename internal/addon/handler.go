package addon

import (
	"context"
	"net/http"

	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Addon, error)
	Create(ctx context.Context, dto AddonDTO) (*Addon, error)
	Update(ctx context.Context, id int64, dto AddonDTO) (*Addon, error)
	Delete(ctx context.Context, id int64) error
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

func (h *Handler) ListAddons(w http.ResponseWriter, r *http.Request) {
	addons, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AddonsResponse{Addons: addons})
}

func (h *Handler) CreateAddon(w http.ResponseWriter, r *http.Request) {
	var dto AddonDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAddon(w http.ResponseWriter, r *http.Request) {
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AddonDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	a, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAddon(w http.ResponseWriter, r *http.Request) {
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
