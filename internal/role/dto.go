package role

import (
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
)

type RoleDTO struct {
	Name        string   `json:"name"`
	IsDefault   bool     `json:"is_default"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
}

// Validate trims the name and normalizes the permission list in place.
func (d *RoleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Permissions = database.NormalizePermissions(d.Permissions)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("color", d.Color).MaxLength(validation.MaxColorLength)
	v.Field("permissions", d.Permissions).Custom(func(interface{}) *internal.AppError {
		if unknown := auth.UnknownPermissions(d.Permissions); len(unknown) > 0 {
			return internal.NewValidationFieldError("permissions",
				"unknown permissions: "+strings.Join(unknown, ", "), internal.ErrCodeValidationFailed)
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}
