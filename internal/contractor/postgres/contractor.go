package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

var referenceTables = map[contractor.Reference]string{
	contractor.RefCity:      "cities",
	contractor.RefAgreement: "agreements",
	contractor.RefUser:      "users",
}

// ContractorRepository writes through gorm and runs the read-only detail
// queries through sqlx on the same pool.
type ContractorRepository struct {
	db  *gorm.DB
	sdb *sqlx.DB
}

func NewContractorRepository(db *gorm.DB, sdb *sqlx.DB) *ContractorRepository {
	return &ContractorRepository{db: db, sdb: sdb}
}

func (r *ContractorRepository) List(ctx context.Context, filter contractor.ListFilter) ([]*contractorDatamodel.Contractor, int64, error) {
	q := r.db.WithContext(ctx).Model(&contractorDatamodel.Contractor{})

	switch filter.Hidden {
	case auth.HiddenAll:
	case auth.HiddenOwn:
		q = q.Where("(is_hidden = ? OR manager_id = ? OR creator_id = ?)", false, filter.ViewerID, filter.ViewerID)
	default:
		q = q.Where("is_hidden = ?", false)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.CityID != nil {
		q = q.Where("primary_city_id = ?", *filter.CityID)
	}
	if filter.ManagerID != nil {
		q = q.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(tax_id) LIKE ?)", pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*contractorDatamodel.Contractor
	err := q.Session(&gorm.Session{}).Order("name ASC").Order("id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *ContractorRepository) GetByID(ctx context.Context, id int64) (*contractorDatamodel.Contractor, error) {
	var c contractorDatamodel.Contractor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContractorRepository) Create(ctx context.Context, c *contractorDatamodel.Contractor) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContractorRepository) Update(ctx context.Context, id, expected int64, columns map[string]interface{}) (bool, error) {
	return updateVersioned(r.db.WithContext(ctx), id, expected, columns)
}

// updateVersioned is the conditional write shared by direct edits and
// approved suggestions.
func updateVersioned(tx *gorm.DB, id, expected int64, columns map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(columns)+1)
	for k, v := range columns {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	res := tx.Model(&contractorDatamodel.Contractor{}).
		Where("id = ? AND version = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ContractorRepository) SetHidden(ctx context.Context, id int64, hidden bool) error {
	return r.db.WithContext(ctx).Model(&contractorDatamodel.Contractor{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_hidden": hidden}).Error
}

func (r *ContractorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		points := tx.Model(&servicePointDatamodel.ServicePoint{}).Select("id").Where("contractor_id = ?", id)
		if err := tx.Where("service_point_id IN (?)", points).Delete(&servicePointDatamodel.ServicePointAddon{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contractor_id = ?", id).Delete(&contractorDatamodel.ContractorFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contractor_id = ?", id).Delete(&servicePointDatamodel.ServicePoint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contractor_id = ?", id).Delete(&contractorDatamodel.ContractorSuggestion{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&contractorDatamodel.Contractor{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (r *ContractorRepository) Exists(ctx context.Context, ref contractor.Reference, id int64) (bool, error) {
	table, ok := referenceTables[ref]
	if !ok {
		return false, fmt.Errorf("unknown reference %q", ref)
	}
	var n int64
	if err := r.db.WithContext(ctx).Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

const servicePointsQuery = `
SELECT id, name, address, city_id, fronts_total, fronts_on_service
FROM service_points
WHERE contractor_id = ?
ORDER BY name ASC, id ASC`

func (r *ContractorRepository) ServicePoints(ctx context.Context, contractorID int64) ([]contractor.ServicePointSummary, error) {
	var points []contractor.ServicePointSummary
	if err := r.sdb.SelectContext(ctx, &points, r.sdb.Rebind(servicePointsQuery), contractorID); err != nil {
		return nil, err
	}
	return points, nil
}

// addonsQuery is the distinct union of the addons used by the contractor's
// service points.
const addonsQuery = `
SELECT DISTINCT a.id, a.name, a.color
FROM addons a
JOIN service_point_addons spa ON spa.addon_id = a.id
JOIN service_points sp ON sp.id = spa.service_point_id
WHERE sp.contractor_id = ?
ORDER BY a.name ASC`

func (r *ContractorRepository) Addons(ctx context.Context, contractorID int64) ([]contractor.AddonSummary, error) {
	var addons []contractor.AddonSummary
	if err := r.sdb.SelectContext(ctx, &addons, r.sdb.Rebind(addonsQuery), contractorID); err != nil {
		return nil, err
	}
	return addons, nil
}

func (r *ContractorRepository) ServicePointBelongs(ctx context.Context, contractorID, servicePointID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&servicePointDatamodel.ServicePoint{}).
		Where("id = ? AND contractor_id = ?", servicePointID, contractorID).
		Count(&n).Error
	return n > 0, err
}
