package agreement

import (
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

type AgreementDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d *AgreementDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("description", d.Description).MaxLength(validation.MaxTextLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type AgreementsResponse struct {
	Agreements []*Agreement `json:"agreements"`
}

type DeleteResponse struct {
	ID                int64 `json:"id"`
	ClearedReferences int64 `json:"cleared_references"`
}
