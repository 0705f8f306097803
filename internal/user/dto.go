package user

import (
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
)

const (
	minLoginLength    = 3
	minPasswordLength = 8
	maxPasswordLength = 72
)

// CreateUserDTO creates an account. Permissions come from RoleID when set,
// otherwise from Permissions when present, otherwise from the default role.
type CreateUserDTO struct {
	Name        string    `json:"name"`
	Login       string    `json:"login"`
	Password    string    `json:"password"`
	Avatar      string    `json:"avatar"`
	RoleID      *int64    `json:"role_id"`
	Permissions *[]string `json:"permissions"`
}

func (d *CreateUserDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Login = strings.TrimSpace(d.Login)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("login", d.Login).Required().MinLength(minLoginLength).MaxLength(validation.MaxNameLength)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength).MaxLength(maxPasswordLength)
	v.Field("avatar", d.Avatar).MaxLength(validation.MaxNameLength)
	if d.Permissions != nil {
		*d.Permissions = database.NormalizePermissions(*d.Permissions)
		v.Field("permissions", *d.Permissions).Custom(knownPermissions)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO is the administrator's partial update. Nil fields are left
// unchanged; a non-nil Permissions replaces the whole set.
type UpdateUserDTO struct {
	Name        *string   `json:"name"`
	Login       *string   `json:"login"`
	Password    *string   `json:"password"`
	Avatar      *string   `json:"avatar"`
	Permissions *[]string `json:"permissions"`
}

func (d *UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		*d.Name = strings.TrimSpace(*d.Name)
		v.Field("name", *d.Name).Required().MaxLength(validation.MaxNameLength)
	}
	if d.Login != nil {
		*d.Login = strings.TrimSpace(*d.Login)
		v.Field("login", *d.Login).Required().MinLength(minLoginLength).MaxLength(validation.MaxNameLength)
	}
	if d.Password != nil {
		v.Field("password", *d.Password).MinLength(minPasswordLength).MaxLength(maxPasswordLength)
	}
	if d.Avatar != nil {
		v.Field("avatar", *d.Avatar).MaxLength(validation.MaxNameLength)
	}
	if d.Permissions != nil {
		*d.Permissions = database.NormalizePermissions(*d.Permissions)
		v.Field("permissions", *d.Permissions).Custom(knownPermissions)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateMeDTO is what users may change about themselves. Changing the
// password needs the current one.
type UpdateMeDTO struct {
	Name            *string `json:"name"`
	Avatar          *string `json:"avatar"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

func (d *UpdateMeDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		*d.Name = strings.TrimSpace(*d.Name)
		v.Field("name", *d.Name).Required().MaxLength(validation.MaxNameLength)
	}
	if d.Avatar != nil {
		v.Field("avatar", *d.Avatar).MaxLength(validation.MaxNameLength)
	}
	if d.NewPassword != nil {
		v.Field("current_password", d.CurrentPassword).Required()
		v.Field("new_password", *d.NewPassword).MinLength(minPasswordLength).MaxLength(maxPasswordLength)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func knownPermissions(value interface{}) *internal.AppError {
	names, _ := value.([]string)
	if unknown := auth.UnknownPermissions(names); len(unknown) > 0 {
		return internal.NewValidationFieldError("permissions",
			"unknown permissions: "+strings.Join(unknown, ", "), internal.ErrCodeValidationFailed)
	}
	return nil
}

type UsersResponse struct {
	Users  []*User `json:"users"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type PermissionsResponse struct {
	Permissions []auth.PermissionInfo `json:"permissions"`
}
