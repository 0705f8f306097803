package contractor

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
)

type RepositoryAPI interface {
	List(ctx context.Context, filter ListFilter) ([]*contractorDatamodel.Contractor, int64, error)
	GetByID(ctx context.Context, id int64) (*contractorDatamodel.Contractor, error)
	Create(ctx context.Context, c *contractorDatamodel.Contractor) error
	// Update applies columns and bumps the version when the stored version
	// equals expected. It reports false on a mismatch.
	Update(ctx context.Context, id, expected int64, columns map[string]interface{}) (bool, error)
	SetHidden(ctx context.Context, id int64, hidden bool) error
	// Delete removes the contractor with its service points, files and
	// suggestions.
	Delete(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, ref Reference, id int64) (bool, error)
	ServicePoints(ctx context.Context, contractorID int64) ([]ServicePointSummary, error)
	Addons(ctx context.Context, contractorID int64) ([]AddonSummary, error)
	ServicePointBelongs(ctx context.Context, contractorID, servicePointID int64) (bool, error)
}

type SuggestionRepositoryAPI interface {
	// Create stores the suggestion and links the author's staged files to
	// it. It fails with ErrInvalidStagedFiles when a file does not qualify.
	Create(ctx context.Context, row *contractorDatamodel.ContractorSuggestion, stagedFileIDs []int64) error
	GetByID(ctx context.Context, id int64) (*contractorDatamodel.ContractorSuggestion, error)
	List(ctx context.Context, filter SuggestionFilter) ([]*contractorDatamodel.ContractorSuggestion, error)
	// Approve moves a pending suggestion to APPROVED, applies columns to the
	// contractor, publishes its staged files and deletes removals, all in one
	// transaction. It reports false when the suggestion is no longer pending.
	Approve(ctx context.Context, review Review, columns map[string]interface{}, removals []int64) (bool, error)
	// Reject moves a pending suggestion to REJECTED and drops its staged files.
	Reject(ctx context.Context, review Review) (bool, error)
}

type FileRepositoryAPI interface {
	ListLive(ctx context.Context, contractorID int64) ([]*contractorDatamodel.ContractorFile, error)
	CountLive(ctx context.Context, contractorID int64, ids []int64) (int64, error)
	Create(ctx context.Context, f *contractorDatamodel.ContractorFile) error
	// DeleteLive removes a published file of the contractor.
	DeleteLive(ctx context.Context, contractorID, fileID int64) (bool, error)
}

type Service struct {
	repo        RepositoryAPI
	suggestions SuggestionRepositoryAPI
	files       FileRepositoryAPI
	policy      *auth.ABACPolicy
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, suggestions SuggestionRepositoryAPI, files FileRepositoryAPI,
	policy *auth.ABACPolicy, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if policy == nil {
		policy = auth.NewABACPolicy(logger)
	}
	return &Service{
		repo:        repo,
		suggestions: suggestions,
		files:       files,
		policy:      policy,
		publisher:   publisher,
		logger:      logger,
	}
}

// UpdateResult is either the edited contractor or, when the actor may only
// propose changes, the suggestion that was filed instead.
type UpdateResult struct {
	Contractor *Contractor
	Suggestion *Suggestion
}

func (s *Service) List(ctx context.Context, actor *internal.User, filter ListFilter) (*ContractorsResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, internal.NewValidationFieldError("status", "unknown status", internal.ErrCodeInvalidStatus)
	}
	filter.Hidden = s.policy.HiddenScopeFor(actor)
	filter.ViewerID = actor.ID

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list contractors", err)
	}

	contractors := make([]*Contractor, 0, len(rows))
	for _, row := range rows {
		contractors = append(contractors, FromDataModel(row))
	}
	return &ContractorsResponse{
		Contractors: contractors,
		Total:       total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}, nil
}

func (s *Service) Get(ctx context.Context, actor *internal.User, id int64) (*Detail, error) {
	row, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.ServicePoints(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load service points", err)
	}
	addons, err := s.repo.Addons(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load addons", err)
	}
	fileRows, err := s.files.ListLive(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load files", err)
	}

	files := make([]*File, 0, len(fileRows))
	for _, f := range fileRows {
		files = append(files, FileFromDataModel(f))
	}
	if points == nil {
		points = []ServicePointSummary{}
	}
	if addons == nil {
		addons = []AddonSummary{}
	}
	return &Detail{
		Contractor:    FromDataModel(row),
		ServicePoints: points,
		Addons:        addons,
		Files:         files,
	}, nil
}

func (s *Service) Create(ctx context.Context, actor *internal.User, dto CreateContractorDTO) (*Contractor, error) {
	if !auth.HasPermission(actor.Permissions, auth.PermCreateClient) {
		s.logger.WarnContext(ctx, "create contractor denied", "user_id", actor.ID)
		return nil, internal.ErrForbidden.WithMessage("not allowed to create contractors")
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, dto.References()); err != nil {
		return nil, err
	}

	creatorID := actor.ID
	row := &contractorDatamodel.Contractor{
		Name:            dto.Name,
		TaxID:           dto.TaxID,
		Status:          string(dto.Status),
		IsChain:         dto.IsChain,
		Notes:           dto.Notes,
		Description:     dto.Description,
		IndividualTerms: dto.IndividualTerms,
		PrimaryCityID:   dto.PrimaryCityID,
		AgreementID:     dto.AgreementID,
		ManagerID:       dto.ManagerID,
		CreatorID:       &creatorID,
		Version:         1,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to create contractor", err)
	}

	s.logger.InfoContext(ctx, "contractor created", "contractor_id", row.ID, "creator_id", actor.ID)
	return FromDataModel(row), nil
}

// Update edits the contractor when the actor passes the edit policy. An actor
// that fails it but holds SUGGEST_EDITS files a pending suggestion instead.
func (s *Service) Update(ctx context.Context, actor *internal.User, id int64, dto UpdateContractorDTO) (*UpdateResult, error) {
	row, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	own := Ownership(row)

	if !s.policy.Allow(actor, auth.ActionEdit, own) {
		if !auth.HasPermission(actor.Permissions, auth.PermSuggestEdits) {
			return nil, s.policy.Authorize(ctx, actor, auth.ActionEdit, own)
		}
		changes, err := dto.ContractorPatch.ChangeSet()
		if err != nil {
			return nil, internal.NewInternalError("failed to encode changes", err)
		}
		sug, err := s.createSuggestion(ctx, actor, row, changes)
		if err != nil {
			return nil, err
		}
		return &UpdateResult{Suggestion: sug}, nil
	}

	if err := s.preparePatch(ctx, &dto.ContractorPatch); err != nil {
		return nil, err
	}
	if dto.Version != nil && *dto.Version != row.Version {
		return nil, internal.ErrVersionConflict
	}
	if dto.ContractorPatch.IsEmpty() {
		return &UpdateResult{Contractor: FromDataModel(row)}, nil
	}

	ok, err := s.repo.Update(ctx, id, row.Version, dto.ContractorPatch.Columns())
	if err != nil {
		return nil, internal.NewInternalError("failed to update contractor", err)
	}
	if !ok {
		return nil, internal.ErrVersionConflict
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to reload contractor", err)
	}
	if updated == nil {
		return nil, ErrContractorNotFound
	}

	s.logger.InfoContext(ctx, "contractor updated", "contractor_id", id, "user_id", actor.ID, "version", updated.Version)
	s.publish(ctx, events.NewContractorUpdated(id, actor.ID, updated.Version))
	return &UpdateResult{Contractor: FromDataModel(updated)}, nil
}

func (s *Service) Delete(ctx context.Context, actor *internal.User, id int64) error {
	row, err := s.visible(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, auth.ActionDelete, Ownership(row)); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to delete contractor", err)
	}
	if !deleted {
		return ErrContractorNotFound
	}

	s.logger.InfoContext(ctx, "contractor deleted", "contractor_id", id, "user_id", actor.ID)
	s.publish(ctx, events.NewContractorDeleted(id, actor.ID))
	return nil
}

// SetVisibility hides or shows a contractor. The version is not bumped.
func (s *Service) SetVisibility(ctx context.Context, actor *internal.User, id int64, dto VisibilityDTO) (*Contractor, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, actor, auth.ActionHide, Ownership(row)); err != nil {
		return nil, err
	}

	hidden := *dto.Hidden
	if row.IsHidden != hidden {
		if err := s.repo.SetHidden(ctx, id, hidden); err != nil {
			return nil, internal.NewInternalError("failed to change visibility", err)
		}
		row.IsHidden = hidden
		s.logger.InfoContext(ctx, "contractor visibility changed", "contractor_id", id, "user_id", actor.ID, "hidden", hidden)
		s.publish(ctx, events.NewContractorVisibilityChanged(id, actor.ID, hidden))
	}
	return FromDataModel(row), nil
}

// visible loads the contractor and hides it from actors that may not see it.
func (s *Service) visible(ctx context.Context, actor *internal.User, id int64) (*contractorDatamodel.Contractor, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load contractor", err)
	}
	if row == nil || !s.policy.CanView(actor, Ownership(row)) {
		return nil, ErrContractorNotFound
	}
	return row, nil
}

// preparePatch validates a patch and checks the rows it points at.
func (s *Service) preparePatch(ctx context.Context, patch *ContractorPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	return s.checkReferences(ctx, patch.References())
}

func (s *Service) checkReferences(ctx context.Context, refs map[Reference]int64) error {
	for _, ref := range []Reference{RefCity, RefAgreement, RefUser} {
		id, ok := refs[ref]
		if !ok {
			continue
		}
		exists, err := s.repo.Exists(ctx, ref, id)
		if err != nil {
			return internal.NewInternalError("failed to check references", err)
		}
		if !exists {
			return internal.ErrInvalidReference.WithMessage(string(ref) + " does not exist")
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
