package servicepoint

import "time"

type ServicePoint struct {
	ID              int64     `gorm:"primaryKey"`
	ContractorID    int64     `gorm:"column:contractor_id;not null;index"`
	Name            string    `gorm:"column:name;not null"`
	Address         string    `gorm:"column:address"`
	CityID          *int64    `gorm:"column:city_id;index"`
	FrontsTotal     int       `gorm:"column:fronts_total;not null;default:0"`
	FrontsOnService int       `gorm:"column:fronts_on_service;not null;default:0"`
	Notes           string    `gorm:"column:notes"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ServicePoint) TableName() string { return "service_points" }

type ServicePointAddon struct {
	ServicePointID int64 `gorm:"column:service_point_id;primaryKey;autoIncrement:false"`
	AddonID        int64 `gorm:"column:addon_id;primaryKey;autoIncrement:false"`
}

func (ServicePointAddon) TableName() string { return "service_point_addons" }
