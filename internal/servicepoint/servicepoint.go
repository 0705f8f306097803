package servicepoint

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
)

var (
	ErrServicePointNotFound = internal.NewNotFoundError("service point not found", internal.ErrCodeNotFound)
	ErrContractorNotFound   = internal.NewNotFoundError("contractor not found", internal.ErrCodeContractorNotFound)
)

type ServicePoint struct {
	ID              int64     `json:"id"`
	ContractorID    int64     `json:"contractor_id"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	CityID          *int64    `json:"city_id"`
	FrontsTotal     int       `json:"fronts_total"`
	FrontsOnService int       `json:"fronts_on_service"`
	Notes           string    `json:"notes"`
	AddonIDs        []int64   `json:"addon_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromDataModel(sp *servicePointDatamodel.ServicePoint, addonIDs []int64) *ServicePoint {
	if addonIDs == nil {
		addonIDs = []int64{}
	}
	return &ServicePoint{
		ID:              sp.ID,
		ContractorID:    sp.ContractorID,
		Name:            sp.Name,
		Address:         sp.Address,
		CityID:          sp.CityID,
		FrontsTotal:     sp.FrontsTotal,
		FrontsOnService: sp.FrontsOnService,
		Notes:           sp.Notes,
		AddonIDs:        addonIDs,
		CreatedAt:       sp.CreatedAt,
		UpdatedAt:       sp.UpdatedAt,
	}
}
