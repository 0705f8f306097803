package servicepoint

import (
	"sort"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

// ServicePointDTO is the full representation written by POST and PUT. The
// addon set in it replaces the stored one.
type ServicePointDTO struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	CityID          *int64  `json:"city_id"`
	FrontsTotal     int     `json:"fronts_total"`
	FrontsOnService int     `json:"fronts_on_service"`
	Notes           string  `json:"notes"`
	AddonIDs        []int64 `json:"addon_ids"`
}

func (d *ServicePointDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	d.AddonIDs = uniqueIDs(d.AddonIDs)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("address", d.Address).MaxLength(validation.MaxTextLength)
	v.Field("notes", d.Notes).MaxLength(validation.MaxTextLength)
	v.Field("city_id", d.CityID).MinInt(1, internal.ErrCodeInvalidReference)
	v.Field("fronts_total", d.FrontsTotal).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("fronts_on_service", d.FrontsOnService).
		MinInt(0, internal.ErrCodeValidationFailed).
		MaxInt(int64(d.FrontsTotal), internal.ErrCodeFrontsExceeded)
	v.Field("addon_ids", d.AddonIDs).Custom(func(interface{}) *internal.AppError {
		for _, id := range d.AddonIDs {
			if id <= 0 {
				return internal.NewValidationFieldError("addon_ids", "addon ids must be positive", internal.ErrCodeInvalidReference)
			}
		}
		return nil
	})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ServicePointsResponse struct {
	ServicePoints []*ServicePoint `json:"service_points"`
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
