package contractor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/frahmantamala/crm-backoffice/internal"
)

type ChangeKind string

const (
	KindField        ChangeKind = "field"
	KindFileAddition ChangeKind = "file_addition"
	KindFileRemoval  ChangeKind = "file_removal"
)

// Change is one entry of a suggestion: a field value, files to attach or
// files to remove.
type Change interface {
	Kind() ChangeKind
}

type FieldChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type FileAddition struct {
	FileIDs []int64 `json:"file_ids"`
}

type FileRemoval struct {
	FileIDs []int64 `json:"file_ids"`
}

func (FieldChange) Kind() ChangeKind  { return KindField }
func (FileAddition) Kind() ChangeKind { return KindFileAddition }
func (FileRemoval) Kind() ChangeKind  { return KindFileRemoval }

// ChangeSet is stored and transferred as a JSON array of objects tagged by
// "kind".
type ChangeSet []Change

type changeEnvelope struct {
	Kind    ChangeKind      `json:"kind"`
	Field   string          `json:"field,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	FileIDs []int64         `json:"file_ids,omitempty"`
}

func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	out := make([]changeEnvelope, 0, len(cs))
	for _, c := range cs {
		switch v := c.(type) {
		case FieldChange:
			value := v.Value
			if len(value) == 0 {
				value = json.RawMessage("null")
			}
			out = append(out, changeEnvelope{Kind: KindField, Field: v.Field, Value: value})
		case FileAddition:
			out = append(out, changeEnvelope{Kind: KindFileAddition, FileIDs: v.FileIDs})
		case FileRemoval:
			out = append(out, changeEnvelope{Kind: KindFileRemoval, FileIDs: v.FileIDs})
		default:
			return nil, fmt.Errorf("unsupported change %T", c)
		}
	}
	return json.Marshal(out)
}

func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	var envelopes []changeEnvelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&envelopes); err != nil {
		return err
	}

	out := make(ChangeSet, 0, len(envelopes))
	for i, e := range envelopes {
		switch e.Kind {
		case KindField:
			if e.Field == "" || len(e.FileIDs) > 0 {
				return fmt.Errorf("change %d: field change needs field and value only", i)
			}
			value := e.Value
			if len(value) == 0 {
				value = json.RawMessage("null")
			}
			out = append(out, FieldChange{Field: e.Field, Value: value})
		case KindFileAddition, KindFileRemoval:
			if e.Field != "" || len(e.Value) > 0 {
				return fmt.Errorf("change %d: file change takes file_ids only", i)
			}
			if e.Kind == KindFileAddition {
				out = append(out, FileAddition{FileIDs: e.FileIDs})
			} else {
				out = append(out, FileRemoval{FileIDs: e.FileIDs})
			}
		default:
			return fmt.Errorf("change %d: unknown kind %q", i, e.Kind)
		}
	}
	*cs = out
	return nil
}

// Patch folds the field changes into a contractor patch. Fields that are not
// editable contractor fields are rejected.
func (cs ChangeSet) Patch() (ContractorPatch, error) {
	var p ContractorPatch

	members := make(map[string]json.RawMessage)
	for _, c := range cs {
		if fc, ok := c.(FieldChange); ok {
			members[fc.Field] = fc.Value
		}
	}
	if len(members) == 0 {
		return p, nil
	}

	raw, err := json.Marshal(members)
	if err != nil {
		return p, internal.NewValidationFieldError("changes", "invalid field change: "+err.Error(), internal.ErrCodeValidationFailed)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, internal.NewValidationFieldError("changes", "invalid field change: "+err.Error(), internal.ErrCodeValidationFailed)
	}
	return p, nil
}

func (cs ChangeSet) FileAdditions() []int64 {
	var ids []int64
	for _, c := range cs {
		if fa, ok := c.(FileAddition); ok {
			ids = append(ids, fa.FileIDs...)
		}
	}
	return uniqueIDs(ids)
}

func (cs ChangeSet) FileRemovals() []int64 {
	var ids []int64
	for _, c := range cs {
		if fr, ok := c.(FileRemoval); ok {
			ids = append(ids, fr.FileIDs...)
		}
	}
	return uniqueIDs(ids)
}

// Validate checks the shape of the change set and returns the patch its field
// changes describe.
func (cs ChangeSet) Validate() (ContractorPatch, error) {
	if len(cs) == 0 {
		return ContractorPatch{}, ErrEmptyChangeSet
	}
	for _, c := range cs {
		var ids []int64
		switch v := c.(type) {
		case FileAddition:
			ids = v.FileIDs
		case FileRemoval:
			ids = v.FileIDs
		default:
			continue
		}
		if len(ids) == 0 {
			return ContractorPatch{}, internal.NewValidationFieldError("changes", "file changes need at least one file id", internal.ErrCodeValidationFailed)
		}
		for _, id := range ids {
			if id <= 0 {
				return ContractorPatch{}, internal.NewValidationFieldError("changes", "file ids must be positive", internal.ErrCodeValidationFailed)
			}
		}
	}

	p, err := cs.Patch()
	if err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func uniqueIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
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
