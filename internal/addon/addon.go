package addon

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
)

var ErrAddonNotFound = internal.NewNotFoundError("addon not found", internal.ErrCodeNotFound)

// Addon is a feature tag attached to service points, e.g. "24/7" or "car wash".
type Addon struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(a *addonDatamodel.Addon) *Addon {
	return &Addon{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Color:       a.Color,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
