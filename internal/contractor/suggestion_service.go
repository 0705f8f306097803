package contractor

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
)

// CreateSuggestion files a change set against a contractor for later review.
func (s *Service) CreateSuggestion(ctx context.Context, actor *internal.User, contractorID int64, dto CreateSuggestionDTO) (*Suggestion, error) {
	if !auth.CanSuggest(actor.Permissions) {
		s.logger.WarnContext(ctx, "suggestion denied", "user_id", actor.ID, "contractor_id", contractorID)
		return nil, internal.ErrForbidden.WithMessage("not allowed to suggest changes")
	}
	row, err := s.visible(ctx, actor, contractorID)
	if err != nil {
		return nil, err
	}
	return s.createSuggestion(ctx, actor, row, dto.Changes)
}

func (s *Service) createSuggestion(ctx context.Context, actor *internal.User, target *contractorDatamodel.Contractor, changes ChangeSet) (*Suggestion, error) {
	patch, err := changes.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, patch.References()); err != nil {
		return nil, err
	}

	if removals := changes.FileRemovals(); len(removals) > 0 {
		n, err := s.files.CountLive(ctx, target.ID, removals)
		if err != nil {
			return nil, internal.NewInternalError("failed to check files", err)
		}
		if n != int64(len(removals)) {
			return nil, internal.ErrInvalidReference.WithMessage("file removals must reference files of this contractor")
		}
	}

	row, err := newSuggestionRow(target.ID, actor.ID, changes)
	if err != nil {
		return nil, internal.NewInternalError("failed to encode suggestion", err)
	}
	if err := s.suggestions.Create(ctx, row, changes.FileAdditions()); err != nil {
		if errors.Is(err, ErrInvalidStagedFiles) {
			return nil, ErrInvalidStagedFiles
		}
		return nil, internal.NewInternalError("failed to create suggestion", err)
	}

	s.logger.InfoContext(ctx, "suggestion created",
		"suggestion_id", row.ID,
		"contractor_id", target.ID,
		"author_id", actor.ID,
		"changes", len(changes))
	s.publish(ctx, events.NewSuggestionCreated(row.ID, target.ID, actor.ID))
	return SuggestionFromDataModel(row)
}

func (s *Service) GetSuggestion(ctx context.Context, actor *internal.User, id int64) (*Suggestion, error) {
	sug, target, err := s.loadSuggestion(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !sug.IsAuthor(actor.ID) && !s.policy.Allow(actor, auth.ActionEdit, Ownership(target)) {
		return nil, internal.ErrForbidden.WithMessage("not allowed to see this suggestion")
	}
	return sug, nil
}

// ListContractorSuggestions lists the suggestions of one contractor. Actors
// that may edit it see all of them, everyone else only their own.
func (s *Service) ListContractorSuggestions(ctx context.Context, actor *internal.User, contractorID int64, filter SuggestionFilter) ([]*Suggestion, error) {
	target, err := s.visible(ctx, actor, contractorID)
	if err != nil {
		return nil, err
	}
	if err := validateSuggestionStatus(filter.Status); err != nil {
		return nil, err
	}

	filter.ContractorID = &contractorID
	if !s.policy.Allow(actor, auth.ActionEdit, Ownership(target)) {
		filter.AuthorID = &actor.ID
	}
	return s.listSuggestions(ctx, actor, filter)
}

// ListSuggestions is the review queue. With mine set it lists the actor's own
// suggestions; otherwise it lists what the actor may review plus what they
// wrote.
func (s *Service) ListSuggestions(ctx context.Context, actor *internal.User, mine bool, filter SuggestionFilter) ([]*Suggestion, error) {
	if err := validateSuggestionStatus(filter.Status); err != nil {
		return nil, err
	}

	switch {
	case mine:
		filter.AuthorID = &actor.ID
	case auth.HasPermission(actor.Permissions, auth.PermEditAllClients):
	case auth.HasPermission(actor.Permissions, auth.PermEditOwnClient):
		filter.ReviewableBy = &actor.ID
	default:
		filter.AuthorID = &actor.ID
	}
	return s.listSuggestions(ctx, actor, filter)
}

func (s *Service) listSuggestions(ctx context.Context, actor *internal.User, filter SuggestionFilter) ([]*Suggestion, error) {
	filter.Hidden = s.policy.HiddenScopeFor(actor)
	filter.ViewerID = actor.ID

	rows, err := s.suggestions.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list suggestions", err)
	}
	out := make([]*Suggestion, 0, len(rows))
	for _, row := range rows {
		sug, err := SuggestionFromDataModel(row)
		if err != nil {
			return nil, internal.NewInternalError("failed to decode suggestion", err)
		}
		out = append(out, sug)
	}
	return out, nil
}

// Approve applies a pending suggestion. Approving an approved suggestion
// returns it unchanged; approving a rejected one is a conflict.
func (s *Service) Approve(ctx context.Context, actor *internal.User, id int64, dto ReviewDTO) (*Suggestion, error) {
	return s.review(ctx, actor, id, dto, SuggestionApproved)
}

// Reject closes a pending suggestion without touching the contractor.
func (s *Service) Reject(ctx context.Context, actor *internal.User, id int64, dto ReviewDTO) (*Suggestion, error) {
	return s.review(ctx, actor, id, dto, SuggestionRejected)
}

func (s *Service) review(ctx context.Context, actor *internal.User, id int64, dto ReviewDTO, target SuggestionStatus) (*Suggestion, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	sug, contractorRow, err := s.loadSuggestion(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, auth.ActionEdit, Ownership(contractorRow)); err != nil {
		return nil, err
	}
	if !sug.IsPending() {
		return s.settled(ctx, sug, target)
	}

	review := Review{
		SuggestionID: sug.ID,
		ContractorID: sug.ContractorID,
		ReviewerID:   actor.ID,
		Comment:      dto.Comment,
		At:           time.Now().UTC(),
	}

	var applied bool
	if target == SuggestionApproved {
		patch, err := sug.Changes.Validate()
		if err != nil {
			return nil, err
		}
		if err := s.preparePatch(ctx, &patch); err != nil {
			return nil, err
		}
		applied, err = s.suggestions.Approve(ctx, review, patch.Columns(), sug.Changes.FileRemovals())
		if err != nil {
			if _, ok := internal.IsAppError(err); ok {
				return nil, err
			}
			return nil, internal.NewInternalError("failed to approve suggestion", err)
		}
	} else {
		applied, err = s.suggestions.Reject(ctx, review)
		if err != nil {
			return nil, internal.NewInternalError("failed to reject suggestion", err)
		}
	}

	current, err := s.reloadSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !applied {
		// a concurrent review got there first
		return s.settled(ctx, current, target)
	}

	s.logger.InfoContext(ctx, "suggestion reviewed",
		"suggestion_id", id,
		"contractor_id", sug.ContractorID,
		"reviewer_id", actor.ID,
		"status", string(target))
	s.publish(ctx, events.NewSuggestionReviewed(target == SuggestionApproved, id, sug.ContractorID, actor.ID))
	if target == SuggestionApproved {
		if updated, err := s.repo.GetByID(ctx, sug.ContractorID); err == nil && updated != nil {
			s.publish(ctx, events.NewContractorUpdated(updated.ID, actor.ID, updated.Version))
		}
	}
	return current, nil
}

// settled answers a review of a suggestion that is no longer pending.
func (s *Service) settled(ctx context.Context, sug *Suggestion, target SuggestionStatus) (*Suggestion, error) {
	if sug.ResolvesTo(target) {
		return sug, nil
	}
	s.logger.WarnContext(ctx, "suggestion already reviewed",
		"suggestion_id", sug.ID,
		"status", string(sug.Status),
		"requested", string(target))
	return nil, ErrAlreadyReviewed.WithMessage("suggestion is already " + string(sug.Status))
}

// loadSuggestion returns the suggestion and its contractor, hiding both from
// actors that cannot see the contractor.
func (s *Service) loadSuggestion(ctx context.Context, actor *internal.User, id int64) (*Suggestion, *contractorDatamodel.Contractor, error) {
	sug, err := s.reloadSuggestion(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.visible(ctx, actor, sug.ContractorID)
	if err != nil {
		if errors.Is(err, ErrContractorNotFound) {
			return nil, nil, ErrSuggestionNotFound
		}
		return nil, nil, err
	}
	return sug, target, nil
}

func (s *Service) reloadSuggestion(ctx context.Context, id int64) (*Suggestion, error) {
	row, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load suggestion", err)
	}
	if row == nil {
		return nil, ErrSuggestionNotFound
	}
	sug, err := SuggestionFromDataModel(row)
	if err != nil {
		return nil, internal.NewInternalError("failed to decode suggestion", err)
	}
	return sug, nil
}

func validateSuggestionStatus(status SuggestionStatus) error {
	switch status {
	case "", SuggestionPending, SuggestionApproved, SuggestionRejected:
		return nil
	}
	return internal.NewValidationFieldError("status", "unknown suggestion status", internal.ErrCodeInvalidStatus)
}
