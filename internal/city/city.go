package city

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
)

var ErrCityNotFound = internal.NewNotFoundError("city not found", internal.ErrCodeNotFound)

type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromDataModel(c *cityDatamodel.City) *City {
	return &City{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
