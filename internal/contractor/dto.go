package contractor

import (
	"path"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

type CreateContractorDTO struct {
	Name            string `json:"name"`
	TaxID           string `json:"tax_id"`
	Status          Status `json:"status"`
	IsChain         bool   `json:"is_chain"`
	Notes           string `json:"notes"`
	Description     string `json:"description"`
	IndividualTerms string `json:"individual_terms"`
	PrimaryCityID   *int64 `json:"primary_city_id"`
	AgreementID     *int64 `json:"agreement_id"`
	ManagerID       *int64 `json:"manager_id"`
}

func (d *CreateContractorDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.TaxID = strings.TrimSpace(d.TaxID)
	if d.Status == "" {
		d.Status = StatusNoContract
	}

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength)
	v.Field("tax_id", d.TaxID).Required().MaxLength(validation.MaxNameLength)
	v.Field("status", string(d.Status)).OneOf(Statuses...)
	v.Field("notes", d.Notes).MaxLength(validation.MaxTextLength)
	v.Field("description", d.Description).MaxLength(validation.MaxTextLength)
	v.Field("individual_terms", d.IndividualTerms).MaxLength(validation.MaxTextLength)
	v.Field("primary_city_id", d.PrimaryCityID).MinInt(1, internal.ErrCodeInvalidReference)
	v.Field("agreement_id", d.AgreementID).MinInt(1, internal.ErrCodeInvalidReference)
	v.Field("manager_id", d.ManagerID).MinInt(1, internal.ErrCodeInvalidReference)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d *CreateContractorDTO) References() map[Reference]int64 {
	refs := make(map[Reference]int64)
	if d.PrimaryCityID != nil {
		refs[RefCity] = *d.PrimaryCityID
	}
	if d.AgreementID != nil {
		refs[RefAgreement] = *d.AgreementID
	}
	if d.ManagerID != nil {
		refs[RefUser] = *d.ManagerID
	}
	return refs
}

// UpdateContractorDTO is the body of PUT /contractors/{id}: a merge patch plus
// the version the client last saw.
type UpdateContractorDTO struct {
	ContractorPatch
	Version *int64 `json:"version,omitempty"`
}

type VisibilityDTO struct {
	Hidden *bool `json:"hidden"`
}

func (d *VisibilityDTO) Validate() error {
	if d.Hidden == nil {
		return internal.NewValidationFieldError("hidden", "hidden is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RegisterFileDTO struct {
	Name           string `json:"name"`
	MimeType       string `json:"mime_type"`
	SizeBytes      int64  `json:"size_bytes"`
	ServicePointID *int64 `json:"service_point_id"`
}

func (d *RegisterFileDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.MimeType = strings.TrimSpace(d.MimeType)

	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(validation.MaxNameLength).Custom(func(interface{}) *internal.AppError {
		if base := path.Base(strings.ReplaceAll(d.Name, "\\", "/")); base == "." || base == ".." || base == "/" {
			return internal.NewValidationFieldError("name", "name is not a valid file name", internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("mime_type", d.MimeType).MaxLength(validation.MaxNameLength)
	v.Field("size_bytes", d.SizeBytes).MinInt(0, internal.ErrCodeValidationFailed)
	v.Field("service_point_id", d.ServicePointID).MinInt(1, internal.ErrCodeInvalidReference)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CreateSuggestionDTO struct {
	Changes ChangeSet `json:"changes"`
}

type ReviewDTO struct {
	Comment string `json:"comment"`
}

func (d *ReviewDTO) Validate() error {
	d.Comment = strings.TrimSpace(d.Comment)
	v := validation.NewValidator()
	v.Field("comment", d.Comment).MaxLength(validation.MaxTextLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ContractorsResponse struct {
	Contractors []*Contractor `json:"contractors"`
	Total       int64         `json:"total"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}

type FilesResponse struct {
	Files []*File `json:"files"`
}

type SuggestionsResponse struct {
	Suggestions []*Suggestion `json:"suggestions"`
	Limit       int           `json:"limit"`
	Offset      int           `json:"offset"`
}
