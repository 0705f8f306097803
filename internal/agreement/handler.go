package agreement

import (
	"context"
	"net/http"

	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*Agreement, error)
	Create(ctx context.Context, dto AgreementDTO) (*Agreement, error)
	Update(ctx context.Context, id int64, dto AgreementDTO) (*Agreement, error)
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

func (h *Handler) ListAgreements(w http.ResponseWriter, r *http.Request) {
	agreements, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AgreementsResponse{Agreements: agreements})
}

func (h *Handler) CreateAgreement(w http.ResponseWriter, r *http.Request) {
	var dto AgreementDTO
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

func (h *Handler) UpdateAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := transport.ParseIDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto AgreementDTO
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

func (h *Handler) DeleteAgreement(w http.ResponseWriter, r *http.Request) {
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
