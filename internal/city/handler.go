package city

import (
	"context"
	"net/http"

	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*City, error)
	Create(ctx context.Context, dto CityDTO) (*City, error)
	Update(ctx context.Context, id int64, dto CityDTO) (*City, error)
	Delete(ctx context.Context, actorID, id int64, force bool) (DeleteResponse, error)
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

func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CitiesResponse{Cities: cities})
}

func (h *Handler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var dto CityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCity(w http.ResponseWriter, r *http.Request) {
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CityDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	c, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c)
}

// DeleteCity handles DELETE /cities/{id}?force=true
func (h *Handler) DeleteCity(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp, err := h.Service.Delete(r.Context(), user.ID, id, transport.QueryBool(r, "force"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
