package role

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	roleDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/role"
)

var ErrRoleNotFound = internal.NewNotFoundError("role not found", internal.ErrCodeNotFound)

// Role is a named permission template. Users copy its permissions at creation
// time; later edits to the role do not propagate.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	IsDefault   bool      `json:"is_default"`
	Color       string    `json:"color"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(r *roleDatamodel.Role, permissions []string) *Role {
	if permissions == nil {
		permissions = []string{}
	}
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		IsDefault:   r.IsDefault,
		Color:       r.Color,
		Permissions: permissions,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
