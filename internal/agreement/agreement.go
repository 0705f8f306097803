package agreement

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	agreementDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/agreement"
)

var ErrAgreementNotFound = internal.NewNotFoundError("agreement not found", internal.ErrCodeNotFound)

// Agreement is a contract template a contractor can be signed on.
type Agreement struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(a *agreementDatamodel.Agreement) *Agreement {
	return &Agreement{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func ToDataModel(a *Agreement) *agreementDatamodel.Agreement {
	return &agreementDatamodel.Agreement{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
