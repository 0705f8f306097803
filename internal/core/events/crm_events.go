package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	SuggestionCreatedEvent           = "suggestion.created"
	SuggestionApprovedEvent          = "suggestion.approved"
	SuggestionRejectedEvent          = "suggestion.rejected"
	ContractorUpdatedEvent           = "contractor.updated"
	ContractorVisibilityChangedEvent = "contractor.visibility_changed"
	ContractorDeletedEvent           = "contractor.deleted"
	ReferenceForceDeletedEvent       = "reference.force_deleted"
)

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func NewSuggestionCreated(suggestionID, contractorID, authorID int64) BaseEvent {
	return newEvent(SuggestionCreatedEvent, map[string]interface{}{
		"suggestion_id": suggestionID,
		"contractor_id": contractorID,
		"author_id":     authorID,
	})
}

func NewSuggestionReviewed(approved bool, suggestionID, contractorID, reviewerID int64) BaseEvent {
	eventType := SuggestionRejectedEvent
	if approved {
		eventType = SuggestionApprovedEvent
	}
	return newEvent(eventType, map[string]interface{}{
		"suggestion_id": suggestionID,
		"contractor_id": contractorID,
		"reviewer_id":   reviewerID,
	})
}

func NewContractorUpdated(contractorID, actorID, version int64) BaseEvent {
	return newEvent(ContractorUpdatedEvent, map[string]interface{}{
		"contractor_id": contractorID,
		"actor_id":      actorID,
		"version":       version,
	})
}

func NewContractorVisibilityChanged(contractorID, actorID int64, hidden bool) BaseEvent {
	return newEvent(ContractorVisibilityChangedEvent, map[string]interface{}{
		"contractor_id": contractorID,
		"actor_id":      actorID,
		"hidden":        hidden,
	})
}

func NewContractorDeleted(contractorID, actorID int64) BaseEvent {
	return newEvent(ContractorDeletedEvent, map[string]interface{}{
		"contractor_id": contractorID,
		"actor_id":      actorID,
	})
}

// NewReferenceForceDeleted records that a city or agreement was deleted with
// its references cleared.
func NewReferenceForceDeleted(kind string, id, actorID, cleared int64) BaseEvent {
	return newEvent(ReferenceForceDeletedEvent, map[string]interface{}{
		"kind":     kind,
		"id":       id,
		"actor_id": actorID,
		"cleared":  cleared,
	})
}
