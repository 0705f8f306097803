package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
	"github.com/frahmantamala/crm-backoffice/internal/servicepoint"
	"gorm.io/gorm"
)

type ServicePointRepository struct {
	db *gorm.DB
}

func NewServicePointRepository(db *gorm.DB) servicepoint.RepositoryAPI {
	return &ServicePointRepository{db: db}
}

func (r *ServicePointRepository) ListByContractor(ctx context.Context, contractorID int64) ([]*servicePointDatamodel.ServicePoint, map[int64][]int64, error) {
	var rows []*servicePointDatamodel.ServicePoint
	if err := r.db.WithContext(ctx).
		Where("contractor_id = ?", contractorID).
		Order("name ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	addons, err := addonsByServicePoint(r.db.WithContext(ctx), ids)
	if err != nil {
		return nil, nil, err
	}
	return rows, addons, nil
}

func (r *ServicePointRepository) GetByID(ctx context.Context, id int64) (*servicePointDatamodel.ServicePoint, []int64, error) {
	var sp servicePointDatamodel.ServicePoint
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	addons, err := addonsByServicePoint(r.db.WithContext(ctx), []int64{id})
	if err != nil {
		return nil, nil, err
	}
	return &sp, addons[id], nil
}

func (r *ServicePointRepository) Create(ctx context.Context, sp *servicePointDatamodel.ServicePoint, addonIDs []int64) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(sp).Error; err != nil {
			return err
		}
		return replaceAddons(tx, sp.ID, addonIDs)
	})
}

func (r *ServicePointRepository) Update(ctx context.Context, sp *servicePointDatamodel.ServicePoint, addonIDs []int64) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(sp).Updates(map[string]interface{}{
			"name":              sp.Name,
			"address":           sp.Address,
			"city_id":           sp.CityID,
			"fronts_total":      sp.FrontsTotal,
			"fronts_on_service": sp.FrontsOnService,
			"notes":             sp.Notes,
		}).Error; err != nil {
			return err
		}
		return replaceAddons(tx, sp.ID, addonIDs)
	})
}

func (r *ServicePointRepository) Delete(ctx context.Context, id int64) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("service_point_id = ?", id).Delete(&servicePointDatamodel.ServicePointAddon{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&contractorDatamodel.ContractorFile{}).
			Where("service_point_id = ?", id).
			Update("service_point_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&servicePointDatamodel.ServicePoint{}).Error
	})
}

func (r *ServicePointRepository) CityExists(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&cityDatamodel.City{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *ServicePointRepository) CountAddons(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&addonDatamodel.Addon{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func replaceAddons(tx *gorm.DB, servicePointID int64, addonIDs []int64) error {
	if err := tx.Where("service_point_id = ?", servicePointID).Delete(&servicePointDatamodel.ServicePointAddon{}).Error; err != nil {
		return err
	}
	if len(addonIDs) == 0 {
		return nil
	}
	rows := make([]servicePointDatamodel.ServicePointAddon, 0, len(addonIDs))
	for _, id := range addonIDs {
		rows = append(rows, servicePointDatamodel.ServicePointAddon{ServicePointID: servicePointID, AddonID: id})
	}
	return tx.Create(&rows).Error
}

func addonsByServicePoint(db *gorm.DB, ids []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []servicePointDatamodel.ServicePointAddon
	if err := db.Where("service_point_id IN ?", ids).Order("addon_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ServicePointID] = append(out[row.ServicePointID], row.AddonID)
	}
	return out, nil
}
