package servicepoint

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
)

type RepositoryAPI interface {
	ListByContractor(ctx context.Context, contractorID int64) ([]*servicePointDatamodel.ServicePoint, map[int64][]int64, error)
	GetByID(ctx context.Context, id int64) (*servicePointDatamodel.ServicePoint, []int64, error)
	// Create and Update replace the addon set in the same transaction.
	Create(ctx context.Context, sp *servicePointDatamodel.ServicePoint, addonIDs []int64) error
	Update(ctx context.Context, sp *servicePointDatamodel.ServicePoint, addonIDs []int64) error
	Delete(ctx context.Context, id int64) error
	CityExists(ctx context.Context, id int64) (bool, error)
	CountAddons(ctx context.Context, ids []int64) (int64, error)
}

// Service guards every service point write with the edit policy of the
// owning contractor.
type Service struct {
	repo   RepositoryAPI
	owners auth.OwnershipResolver
	policy *auth.ABACPolicy
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, owners auth.OwnershipResolver, policy *auth.ABACPolicy, logger *slog.Logger) *Service {
	if policy == nil {
		policy = auth.NewABACPolicy(logger)
	}
	return &Service{
		repo:   repo,
		owners: owners,
		policy: policy,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, actor *internal.User, contractorID int64) ([]*ServicePoint, error) {
	if _, err := s.ownership(ctx, actor, contractorID); err != nil {
		return nil, err
	}

	rows, addons, err := s.repo.ListByContractor(ctx, contractorID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list service points", err)
	}
	points := make([]*ServicePoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, FromDataModel(row, addons[row.ID]))
	}
	return points, nil
}

func (s *Service) Get(ctx context.Context, actor *internal.User, id int64) (*ServicePoint, error) {
	row, addonIDs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownership(ctx, actor, row.ContractorID); err != nil {
		return nil, hideContractor(err)
	}
	return FromDataModel(row, addonIDs), nil
}

func (s *Service) Create(ctx context.Context, actor *internal.User, contractorID int64, dto ServicePointDTO) (*ServicePoint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, actor, contractorID); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, dto); err != nil {
		return nil, err
	}

	row := &servicePointDatamodel.ServicePoint{ContractorID: contractorID}
	apply(row, dto)
	if err := s.repo.Create(ctx, row, dto.AddonIDs); err != nil {
		return nil, internal.NewInternalError("failed to create service point", err)
	}

	s.logger.InfoContext(ctx, "service point created", "service_point_id", row.ID, "contractor_id", contractorID, "user_id", actor.ID)
	return FromDataModel(row, dto.AddonIDs), nil
}

func (s *Service) Update(ctx context.Context, actor *internal.User, id int64, dto ServicePointDTO) (*ServicePoint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	row, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, actor, row.ContractorID); err != nil {
		return nil, hideContractor(err)
	}
	if err := s.checkReferences(ctx, dto); err != nil {
		return nil, err
	}

	apply(row, dto)
	if err := s.repo.Update(ctx, row, dto.AddonIDs); err != nil {
		return nil, internal.NewInternalError("failed to update service point", err)
	}

	s.logger.InfoContext(ctx, "service point updated", "service_point_id", id, "user_id", actor.ID)
	return FromDataModel(row, dto.AddonIDs), nil
}

func (s *Service) Delete(ctx context.Context, actor *internal.User, id int64) error {
	row, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeEdit(ctx, actor, row.ContractorID); err != nil {
		return hideContractor(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete service point", err)
	}

	s.logger.InfoContext(ctx, "service point deleted", "service_point_id", id, "user_id", actor.ID)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*servicePointDatamodel.ServicePoint, []int64, error) {
	row, addonIDs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load service point", err)
	}
	if row == nil {
		return nil, nil, ErrServicePointNotFound
	}
	return row, addonIDs, nil
}

// ownership reads the owning contractor and applies the visibility rule.
func (s *Service) ownership(ctx context.Context, actor *internal.User, contractorID int64) (auth.Ownership, error) {
	own, err := s.owners.Ownership(ctx, contractorID)
	if err != nil {
		if errors.Is(err, auth.ErrOwnershipNotFound) {
			return auth.Ownership{}, ErrContractorNotFound
		}
		return auth.Ownership{}, internal.NewInternalError("failed to load contractor", err)
	}
	if !s.policy.CanView(actor, own) {
		return auth.Ownership{}, ErrContractorNotFound
	}
	return own, nil
}

func (s *Service) authorizeEdit(ctx context.Context, actor *internal.User, contractorID int64) error {
	own, err := s.ownership(ctx, actor, contractorID)
	if err != nil {
		return err
	}
	return s.policy.Authorize(ctx, actor, auth.ActionEdit, own)
}

func (s *Service) checkReferences(ctx context.Context, dto ServicePointDTO) error {
	if dto.CityID != nil {
		ok, err := s.repo.CityExists(ctx, *dto.CityID)
		if err != nil {
			return internal.NewInternalError("failed to check city", err)
		}
		if !ok {
			return internal.ErrInvalidReference.WithMessage("city does not exist")
		}
	}
	if len(dto.AddonIDs) > 0 {
		n, err := s.repo.CountAddons(ctx, dto.AddonIDs)
		if err != nil {
			return internal.NewInternalError("failed to check addons", err)
		}
		if n != int64(len(dto.AddonIDs)) {
			return internal.ErrInvalidReference.WithMessage("addon does not exist")
		}
	}
	return nil
}

// hideContractor reports a service point of an invisible contractor as a
// missing service point.
func hideContractor(err error) error {
	if errors.Is(err, ErrContractorNotFound) {
		return ErrServicePointNotFound
	}
	return err
}

func apply(row *servicePointDatamodel.ServicePoint, dto ServicePointDTO) {
	row.Name = dto.Name
	row.Address = dto.Address
	row.CityID = dto.CityID
	row.FrontsTotal = dto.FrontsTotal
	row.FrontsOnService = dto.FrontsOnService
	row.Notes = dto.Notes
}
