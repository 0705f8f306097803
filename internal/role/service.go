package role

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	roleDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/role"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	GetDefault(ctx context.Context) (*Role, error)
	// Create and Update clear every other default in the same transaction
	// when the row is marked default.
	Create(ctx context.Context, r *roleDatamodel.Role, permissions []string) error
	Update(ctx context.Context, r *roleDatamodel.Role, permissions []string) error
	Delete(ctx context.Context, id int64) (bool, error)
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

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	roles, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	return roles, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if r == nil {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, dto RoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{Name: dto.Name, IsDefault: dto.IsDefault, Color: dto.Color}
	if err := s.repo.Create(ctx, row, dto.Permissions); err != nil {
		return nil, mapWriteError(err)
	}

	s.logger.InfoContext(ctx, "role created", "role_id", row.ID, "default", row.IsDefault)
	return FromDataModel(row, dto.Permissions), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto RoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{
		ID:        existing.ID,
		Name:      dto.Name,
		IsDefault: dto.IsDefault,
		Color:     dto.Color,
		CreatedAt: existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, row, dto.Permissions); err != nil {
		return nil, mapWriteError(err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return internal.NewInternalError("failed to delete role", err)
	}
	if !deleted {
		return ErrRoleNotFound
	}
	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return nil
}

// TemplatePermissions returns the permissions a new user inherits: those of
// roleID when given, otherwise those of the default role, otherwise none.
func (s *Service) TemplatePermissions(ctx context.Context, roleID *int64) ([]string, error) {
	if roleID != nil {
		r, err := s.repo.GetByID(ctx, *roleID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load role", err)
		}
		if r == nil {
			return nil, internal.ErrInvalidReference.WithMessage("role_id does not exist")
		}
		return r.Permissions, nil
	}

	r, err := s.repo.GetDefault(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load default role", err)
	}
	if r == nil {
		return []string{}, nil
	}
	return r.Permissions, nil
}

func mapWriteError(err error) error {
	if database.IsDuplicateKey(err) {
		return internal.ErrDuplicateName.WithMessage("a role with this name already exists")
	}
	var unknown *database.UnknownPermissionsError
	if errors.As(err, &unknown) {
		return internal.NewValidationFieldError("permissions", unknown.Error(), internal.ErrCodeValidationFailed)
	}
	return internal.NewInternalError("failed to save role", err)
}
