package addon

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*addonDatamodel.Addon, error)
	GetByID(ctx context.Context, id int64) (*addonDatamodel.Addon, error)
	Create(ctx context.Context, a *addonDatamodel.Addon) error
	Update(ctx context.Context, a *addonDatamodel.Addon) error
	// Delete removes the addon and detaches it from every service point.
	Delete(ctx context.Context, id int64) (detached int64, err error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Addon, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list addons", err)
	}
	out := make([]*Addon, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, dto AddonDTO) (*Addon, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &addonDatamodel.Addon{Name: dto.Name, Description: dto.Description, Color: dto.Color}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, mapWriteError(err)
	}
	s.logger.InfoContext(ctx, "addon created", "addon_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto AddonDTO) (*Addon, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load addon", err)
	}
	if row == nil {
		return nil, ErrAddonNotFound
	}

	row.Name = dto.Name
	row.Description = dto.Description
	row.Color = dto.Color
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, mapWriteError(err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	detached, err := s.repo.Delete(ctx, id)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			return appErr
		}
		return internal.NewInternalError("failed to delete addon", err)
	}
	s.logger.InfoContext(ctx, "addon deleted", "addon_id", id, "detached_service_points", detached)
	return nil
}

func mapWriteError(err error) error {
	if database.IsDuplicateKey(err) {
		return internal.ErrDuplicateName.WithMessage("an addon with this name already exists")
	}
	return internal.NewInternalError("failed to save addon", err)
}
