package user

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
)

var (
	ErrUserNotFound = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrSelfDelete   = internal.NewValidationError("users cannot delete themselves", internal.ErrCodeSelfDelete)
)

// User is the public view of an account. The password hash never leaves the
// repository layer.
type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Login       string    `json:"login"`
	Avatar      string    `json:"avatar,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:          u.ID,
		Name:        u.Name,
		Login:       u.Login,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		Permissions: []string{},
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	if permissions != nil {
		domainUser.Permissions = permissions
	}
	return domainUser
}
