package city

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*cityDatamodel.City, error)
	GetByID(ctx context.Context, id int64) (*cityDatamodel.City, error)
	Create(ctx context.Context, c *cityDatamodel.City) error
	Update(ctx context.Context, c *cityDatamodel.City) error
	// Delete removes the city, clearing references first when force is set.
	Delete(ctx context.Context, id int64, force bool) (cleared int64, err error)
}

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*City, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list cities", err)
	}

	cities := make([]*City, 0, len(rows))
	for _, row := range rows {
		cities = append(cities, FromDataModel(row))
	}
	return cities, nil
}

func (s *Service) Create(ctx context.Context, dto CityDTO) (*City, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &cityDatamodel.City{Name: dto.Name}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.mapWriteError(err)
	}

	s.logger.InfoContext(ctx, "city created", "city_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto CityDTO) (*City, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load city", err)
	}
	if row == nil {
		return nil, ErrCityNotFound
	}

	row.Name = dto.Name
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.mapWriteError(err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actorID, id int64, force bool) (DeleteResponse, error) {
	cleared, err := s.repo.Delete(ctx, id, force)
	if err != nil {
		var inUse *database.ReferenceInUseError
		switch {
		case errors.Is(err, ErrCityNotFound):
			return DeleteResponse{}, ErrCityNotFound
		case errors.As(err, &inUse):
			return DeleteResponse{}, internal.NewReferenceInUseError(
				"city is referenced by contractors or service points; retry with force=true", inUse.References)
		default:
			return DeleteResponse{}, internal.NewInternalError("failed to delete city", err)
		}
	}

	s.logger.InfoContext(ctx, "city deleted", "city_id", id, "force", force, "cleared_references", cleared)
	if cleared > 0 {
		if err := s.publisher.Publish(ctx, events.NewReferenceForceDeleted("city", id, actorID, cleared)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish city deletion", "error", err)
		}
	}
	return DeleteResponse{ID: id, ClearedReferences: cleared}, nil
}

func (s *Service) mapWriteError(err error) error {
	if database.IsDuplicateKey(err) {
		return internal.ErrDuplicateName.WithMessage("a city with this name already exists")
	}
	return internal.NewInternalError("failed to save city", err)
}
