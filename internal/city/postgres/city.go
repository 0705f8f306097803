package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/city"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	"gorm.io/gorm"
)

// cityReferences are the nullable columns that point at cities.
var cityReferences = []database.Reference{
	{Table: "contractors", Column: "primary_city_id", Versioned: true},
	{Table: "service_points", Column: "city_id"},
}

type CityRepository struct {
	db *gorm.DB
}

func NewCityRepository(db *gorm.DB) city.RepositoryAPI {
	return &CityRepository{db: db}
}

func (r *CityRepository) GetAll(ctx context.Context) ([]*cityDatamodel.City, error) {
	var cities []*cityDatamodel.City
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error
	return cities, err
}

func (r *CityRepository) GetByID(ctx context.Context, id int64) (*cityDatamodel.City, error) {
	var c cityDatamodel.City
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CityRepository) Create(ctx context.Context, c *cityDatamodel.City) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CityRepository) Update(ctx context.Context, c *cityDatamodel.City) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CityRepository) Delete(ctx context.Context, id int64, force bool) (int64, error) {
	var cleared int64
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		n, err := database.DeleteReferenced(tx, &cityDatamodel.City{}, id, force, cityReferences...)
		if err != nil {
			return err
		}
		cleared = n
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, city.ErrCityNotFound
	}
	return cleared, err
}
