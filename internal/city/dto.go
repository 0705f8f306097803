package city

import (
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

type CityDTO struct {
	Name string `json:"name"`
}

func (d *CityDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if err := validation.ValidateName("name", d.Name); err != nil {
		return err
	}
	return nil
}

type CitiesResponse struct {
	Cities []*City `json:"cities"`
}

// DeleteResponse reports how many contractor and service point references a
// forced delete cleared.
type DeleteResponse struct {
	ID                int64 `json:"id"`
	ClearedReferences int64 `json:"cleared_references"`
}
