package contractor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal/auth"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"gorm.io/datatypes"
)

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionApproved SuggestionStatus = "APPROVED"
	SuggestionRejected SuggestionStatus = "REJECTED"
)

var SuggestionStatuses = []string{
	string(SuggestionPending),
	string(SuggestionApproved),
	string(SuggestionRejected),
}

type Suggestion struct {
	ID            int64            `json:"id"`
	ContractorID  int64            `json:"contractor_id"`
	AuthorID      *int64           `json:"author_id"`
	Changes       ChangeSet        `json:"changes"`
	Status        SuggestionStatus `json:"status"`
	ReviewerID    *int64           `json:"reviewer_id"`
	ReviewedAt    *time.Time       `json:"reviewed_at"`
	ReviewComment string           `json:"review_comment,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func (s *Suggestion) IsPending() bool {
	return s.Status == SuggestionPending
}

// ResolvesTo reports whether the suggestion already sits in the terminal
// state a review would move it to.
func (s *Suggestion) ResolvesTo(target SuggestionStatus) bool {
	return s.Status == target
}

func (s *Suggestion) IsAuthor(userID int64) bool {
	return s.AuthorID != nil && *s.AuthorID == userID
}

func SuggestionFromDataModel(row *contractorDatamodel.ContractorSuggestion) (*Suggestion, error) {
	var changes ChangeSet
	if len(row.Changes) > 0 {
		if err := json.Unmarshal(row.Changes, &changes); err != nil {
			return nil, fmt.Errorf("decode changes of suggestion %d: %w", row.ID, err)
		}
	}
	return &Suggestion{
		ID:            row.ID,
		ContractorID:  row.ContractorID,
		AuthorID:      row.AuthorID,
		Changes:       changes,
		Status:        SuggestionStatus(row.Status),
		ReviewerID:    row.ReviewerID,
		ReviewedAt:    row.ReviewedAt,
		ReviewComment: row.ReviewComment,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func newSuggestionRow(contractorID, authorID int64, changes ChangeSet) (*contractorDatamodel.ContractorSuggestion, error) {
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("encode changes: %w", err)
	}
	return &contractorDatamodel.ContractorSuggestion{
		ContractorID: contractorID,
		AuthorID:     &authorID,
		Changes:      datatypes.JSON(raw),
		Status:       string(SuggestionPending),
	}, nil
}

// Review carries the reviewer side of a transition.
type Review struct {
	SuggestionID int64
	ContractorID int64
	ReviewerID   int64
	Comment      string
	At           time.Time
}

// SuggestionFilter narrows suggestion listings. Zero values mean no
// restriction.
type SuggestionFilter struct {
	Status       SuggestionStatus
	ContractorID *int64
	AuthorID     *int64
	// ReviewableBy limits results to suggestions on contractors the user
	// manages or created, plus the ones the user wrote.
	ReviewableBy *int64
	Limit        int
	Offset       int

	Hidden   auth.HiddenScope
	ViewerID int64
}
