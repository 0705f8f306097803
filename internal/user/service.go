package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*User, error)
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetPasswordHash(ctx context.Context, userID int64) (string, error)
	Create(ctx context.Context, u *userDatamodel.User, permissions []string, grantedBy int64) error
	// Update applies fields and, when permissions is non-nil, replaces the
	// permission set. It reports false when the user does not exist.
	Update(ctx context.Context, userID int64, fields map[string]interface{}, permissions *[]string, grantedBy int64) (bool, error)
	// Delete removes the user and clears every reference to it.
	Delete(ctx context.Context, userID int64) (bool, error)
}

// RoleTemplates resolves the permissions a new user starts with.
type RoleTemplates interface {
	TemplatePermissions(ctx context.Context, roleID *int64) ([]string, error)
}

type Service struct {
	repo       Repository
	templates  RoleTemplates
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, templates RoleTemplates, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		templates:  templates,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user by id", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) Create(ctx context.Context, actorID int64, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var permissions []string
	switch {
	case dto.RoleID != nil:
		perms, err := s.templates.TemplatePermissions(ctx, dto.RoleID)
		if err != nil {
			return nil, err
		}
		permissions = perms
	case dto.Permissions != nil:
		permissions = *dto.Permissions
	default:
		perms, err := s.templates.TemplatePermissions(ctx, nil)
		if err != nil {
			return nil, err
		}
		permissions = perms
	}

	hash, err := s.hash(dto.Password)
	if err != nil {
		return nil, err
	}

	row := &userDatamodel.User{
		Name:         dto.Name,
		Login:        dto.Login,
		PasswordHash: hash,
		Avatar:       dto.Avatar,
	}
	if err := s.repo.Create(ctx, row, permissions, actorID); err != nil {
		return nil, mapWriteError(err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", row.ID, "created_by", actorID, "permissions", len(permissions))
	return s.GetByID(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, actorID, userID int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Login != nil {
		fields["login"] = *dto.Login
	}
	if dto.Avatar != nil {
		fields["avatar"] = *dto.Avatar
	}
	if dto.Password != nil {
		hash, err := s.hash(*dto.Password)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	found, err := s.repo.Update(ctx, userID, fields, dto.Permissions, actorID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if !found {
		return nil, ErrUserNotFound
	}

	if dto.Permissions != nil {
		s.logger.InfoContext(ctx, "user permissions replaced", "user_id", userID, "granted_by", actorID, "permissions", *dto.Permissions)
	}
	return s.GetByID(ctx, userID)
}

// UpdateMe lets a user change their own name, avatar or password.
func (s *Service) UpdateMe(ctx context.Context, userID int64, dto UpdateMeDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Avatar != nil {
		fields["avatar"] = *dto.Avatar
	}
	if dto.NewPassword != nil {
		current, err := s.repo.GetPasswordHash(ctx, userID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load credentials", err)
		}
		if current == "" {
			return nil, ErrUserNotFound
		}
		if err := bcrypt.CompareHashAndPassword([]byte(current), []byte(dto.CurrentPassword)); err != nil {
			return nil, internal.NewValidationFieldError("current_password", "current password is incorrect", internal.ErrCodeInvalidCredentials)
		}
		hash, err := s.hash(*dto.NewPassword)
		if err != nil {
			return nil, err
		}
		fields["password_hash"] = hash
	}

	found, err := s.repo.Update(ctx, userID, fields, nil, userID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return s.GetByID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, actorID, userID int64) error {
	if actorID == userID {
		return ErrSelfDelete
	}

	deleted, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return internal.NewInternalError("failed to delete user", err)
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", userID, "deleted_by", actorID)
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", internal.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}

func mapWriteError(err error) error {
	if database.IsDuplicateKey(err) {
		return internal.ErrDuplicateName.WithMessage("login is already taken")
	}
	var unknown *database.UnknownPermissionsError
	if errors.As(err, &unknown) {
		return internal.NewValidationFieldError("permissions", unknown.Error(), internal.ErrCodeValidationFailed)
	}
	return internal.NewInternalError("failed to save user", err)
}
