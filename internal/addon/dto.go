package addon

import (
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

type AddonDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (d *AddonDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Color = strings.TrimSpace(d.Color)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("description", d.Description).MaxLength(validation.MaxTextLength)
	v.Field("color", d.Color).MaxLength(validation.MaxColorLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AddonsResponse struct {
	Addons []*Addon `json:"addons"`
}
