package auth

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, login string) (int64, string, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Select("id", "password_hash").
		Where("login = ?", login).
		Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, "", auth.ErrUserNotFound
		}
		return 0, "", err
	}
	return u.ID, u.PasswordHash, nil
}

func (r *Repository) GetUserWithPermissions(ctx context.Context, userID int64) (*internal.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Select("id", "login").
		Where("id = ?", userID).
		Take(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	permissions := make([]string, 0)
	err = r.db.WithContext(ctx).
		Table("permissions p").
		Joins("JOIN user_permissions up ON p.id = up.permission_id").
		Where("up.user_id = ?", userID).
		Order("p.name").
		Pluck("p.name", &permissions).Error
	if err != nil {
		return nil, err
	}

	return &internal.User{
		ID:          u.ID,
		Login:       u.Login,
		Permissions: permissions,
	}, nil
}
