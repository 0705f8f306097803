package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/addon"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
	"gorm.io/gorm"
)

type AddonRepository struct {
	db *gorm.DB
}

func NewAddonRepository(db *gorm.DB) addon.RepositoryAPI {
	return &AddonRepository{db: db}
}

func (r *AddonRepository) GetAll(ctx context.Context) ([]*addonDatamodel.Addon, error) {
	var addons []*addonDatamodel.Addon
	err := r.db.WithContext(ctx).Order("name ASC").Find(&addons).Error
	return addons, err
}

func (r *AddonRepository) GetByID(ctx context.Context, id int64) (*addonDatamodel.Addon, error) {
	var a addonDatamodel.Addon
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AddonRepository) Create(ctx context.Context, a *addonDatamodel.Addon) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AddonRepository) Update(ctx context.Context, a *addonDatamodel.Addon) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AddonRepository) Delete(ctx context.Context, id int64) (int64, error) {
	var detached int64
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		res := tx.Where("addon_id = ?", id).Delete(&servicePointDatamodel.ServicePointAddon{})
		if res.Error != nil {
			return res.Error
		}
		detached = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&addonDatamodel.Addon{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return addon.ErrAddonNotFound
		}
		return nil
	})
	return detached, err
}
