package contractor

import (
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
)

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusDebt       Status = "DEBT"
	StatusLeft       Status = "LEFT"
	StatusClosed     Status = "CLOSED"
	StatusNoContract Status = "NO_CONTRACT"
	StatusSeasonal   Status = "SEASONAL"
	StatusLaunching  Status = "LAUNCHING"
)

// Statuses lists every accepted contractor status.
var Statuses = []string{
	string(StatusActive),
	string(StatusDebt),
	string(StatusLeft),
	string(StatusClosed),
	string(StatusNoContract),
	string(StatusSeasonal),
	string(StatusLaunching),
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if string(s) == v {
			return true
		}
	}
	return false
}

var (
	ErrContractorNotFound = internal.NewNotFoundError("contractor not found", internal.ErrCodeContractorNotFound)
	ErrSuggestionNotFound = internal.NewNotFoundError("suggestion not found", internal.ErrCodeSuggestionNotFound)
	ErrFileNotFound       = internal.NewNotFoundError("file not found", internal.ErrCodeFileNotFound)
	ErrAlreadyReviewed    = internal.NewConflictError("suggestion was already reviewed", internal.ErrCodeAlreadyReviewed)
	ErrEmptyChangeSet     = internal.NewValidationError("change set is empty", internal.ErrCodeEmptyChangeSet)
	ErrInvalidStagedFiles = internal.NewValidationError("file additions must reference your own staged files of this contractor", internal.ErrCodeInvalidReference)
)

type Contractor struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	TaxID           string    `json:"tax_id"`
	Status          Status    `json:"status"`
	IsChain         bool      `json:"is_chain"`
	Notes           string    `json:"notes"`
	Description     string    `json:"description"`
	IndividualTerms string    `json:"individual_terms"`
	PrimaryCityID   *int64    `json:"primary_city_id"`
	AgreementID     *int64    `json:"agreement_id"`
	ManagerID       *int64    `json:"manager_id"`
	CreatorID       *int64    `json:"creator_id"`
	IsHidden        bool      `json:"is_hidden"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func FromDataModel(c *contractorDatamodel.Contractor) *Contractor {
	return &Contractor{
		ID:              c.ID,
		Name:            c.Name,
		TaxID:           c.TaxID,
		Status:          Status(c.Status),
		IsChain:         c.IsChain,
		Notes:           c.Notes,
		Description:     c.Description,
		IndividualTerms: c.IndividualTerms,
		PrimaryCityID:   c.PrimaryCityID,
		AgreementID:     c.AgreementID,
		ManagerID:       c.ManagerID,
		CreatorID:       c.CreatorID,
		IsHidden:        c.IsHidden,
		Version:         c.Version,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// Ownership returns the attributes the access policy decides on.
func Ownership(c *contractorDatamodel.Contractor) auth.Ownership {
	return auth.Ownership{
		ContractorID: c.ID,
		ManagerID:    c.ManagerID,
		CreatorID:    c.CreatorID,
		Hidden:       c.IsHidden,
	}
}

type ServicePointSummary struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	Address         string `json:"address" db:"address"`
	CityID          *int64 `json:"city_id" db:"city_id"`
	FrontsTotal     int    `json:"fronts_total" db:"fronts_total"`
	FrontsOnService int    `json:"fronts_on_service" db:"fronts_on_service"`
}

type AddonSummary struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
}

// Detail is a contractor with its service points, the distinct addons used by
// them and its live files.
type Detail struct {
	*Contractor
	ServicePoints []ServicePointSummary `json:"service_points"`
	Addons        []AddonSummary        `json:"addons"`
	Files         []*File               `json:"files"`
}

// ListFilter narrows GET /contractors.
type ListFilter struct {
	Status    Status
	CityID    *int64
	ManagerID *int64
	Query     string
	Limit     int
	Offset    int

	Hidden   auth.HiddenScope
	ViewerID int64
}
