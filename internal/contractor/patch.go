package contractor

import (
	"encoding/json"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/common/validation"
)

// Field is an optional JSON member. Set tells an absent member apart from an
// explicit null or zero value.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// ContractorPatch is a merge patch over the editable contractor fields. The
// hidden flag and the version are not part of it.
type ContractorPatch struct {
	Name            Field[string] `json:"name"`
	TaxID           Field[string] `json:"tax_id"`
	Status          Field[Status] `json:"status"`
	IsChain         Field[bool]   `json:"is_chain"`
	Notes           Field[string] `json:"notes"`
	Description     Field[string] `json:"description"`
	IndividualTerms Field[string] `json:"individual_terms"`
	PrimaryCityID   Field[*int64] `json:"primary_city_id"`
	AgreementID     Field[*int64] `json:"agreement_id"`
	ManagerID       Field[*int64] `json:"manager_id"`
}

type patchEntry struct {
	name  string
	set   bool
	value interface{}
}

// entries lists the patch members by column name. JSON names and column names
// are the same.
func (p *ContractorPatch) entries() []patchEntry {
	return []patchEntry{
		{"name", p.Name.Set, p.Name.Value},
		{"tax_id", p.TaxID.Set, p.TaxID.Value},
		{"status", p.Status.Set, string(p.Status.Value)},
		{"is_chain", p.IsChain.Set, p.IsChain.Value},
		{"notes", p.Notes.Set, p.Notes.Value},
		{"description", p.Description.Set, p.Description.Value},
		{"individual_terms", p.IndividualTerms.Set, p.IndividualTerms.Value},
		{"primary_city_id", p.PrimaryCityID.Set, p.PrimaryCityID.Value},
		{"agreement_id", p.AgreementID.Set, p.AgreementID.Value},
		{"manager_id", p.ManagerID.Set, p.ManagerID.Value},
	}
}

func (p *ContractorPatch) IsEmpty() bool {
	for _, e := range p.entries() {
		if e.set {
			return false
		}
	}
	return true
}

// Validate trims the text members and checks every member that is present.
func (p *ContractorPatch) Validate() error {
	p.Name.Value = strings.TrimSpace(p.Name.Value)
	p.TaxID.Value = strings.TrimSpace(p.TaxID.Value)

	v := validation.NewValidator()
	if p.Name.Set {
		v.Field("name", p.Name.Value).Required().MaxLength(validation.MaxNameLength)
	}
	if p.TaxID.Set {
		v.Field("tax_id", p.TaxID.Value).Required().MaxLength(validation.MaxNameLength)
	}
	if p.Status.Set {
		v.Field("status", string(p.Status.Value)).Required().OneOf(Statuses...)
	}
	if p.Notes.Set {
		v.Field("notes", p.Notes.Value).MaxLength(validation.MaxTextLength)
	}
	if p.Description.Set {
		v.Field("description", p.Description.Value).MaxLength(validation.MaxTextLength)
	}
	if p.IndividualTerms.Set {
		v.Field("individual_terms", p.IndividualTerms.Value).MaxLength(validation.MaxTextLength)
	}
	v.Field("primary_city_id", p.PrimaryCityID.Value).MinInt(1, internal.ErrCodeInvalidReference)
	v.Field("agreement_id", p.AgreementID.Value).MinInt(1, internal.ErrCodeInvalidReference)
	v.Field("manager_id", p.ManagerID.Value).MinInt(1, internal.ErrCodeInvalidReference)

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Columns returns the present members keyed by column, ready for an update.
func (p *ContractorPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	for _, e := range p.entries() {
		if e.set {
			cols[e.name] = e.value
		}
	}
	return cols
}

// References returns the referenced ids the patch sets to a non-null value.
func (p *ContractorPatch) References() map[Reference]int64 {
	refs := make(map[Reference]int64)
	if p.PrimaryCityID.Set && p.PrimaryCityID.Value != nil {
		refs[RefCity] = *p.PrimaryCityID.Value
	}
	if p.AgreementID.Set && p.AgreementID.Value != nil {
		refs[RefAgreement] = *p.AgreementID.Value
	}
	if p.ManagerID.Set && p.ManagerID.Value != nil {
		refs[RefUser] = *p.ManagerID.Value
	}
	return refs
}

// ChangeSet turns the present members into field changes.
func (p *ContractorPatch) ChangeSet() (ChangeSet, error) {
	var cs ChangeSet
	for _, e := range p.entries() {
		if !e.set {
			continue
		}
		raw, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		cs = append(cs, FieldChange{Field: e.name, Value: raw})
	}
	return cs, nil
}

// Reference names a row a contractor can point at.
type Reference string

const (
	RefCity      Reference = "city"
	RefAgreement Reference = "agreement"
	RefUser      Reference = "user"
)
