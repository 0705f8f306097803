package agreement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	agreementDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/agreement"
	"github.com/frahmantamala/crm-backoffice/internal/core/events"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*agreementDatamodel.Agreement, error)
	GetByID(ctx context.Context, id int64) (*agreementDatamodel.Agreement, error)
	Create(ctx context.Context, a *agreementDatamodel.Agreement) error
	Update(ctx context.Context, a *agreementDatamodel.Agreement) error
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

func (s *Service) List(ctx context.Context) ([]*Agreement, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get agreements from repository", "error", err)
		return nil, internal.NewInternalError("failed to list agreements", err)
	}

	out := make([]*Agreement, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, dto AgreementDTO) (*Agreement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row := ToDataModel(&Agreement{Name: dto.Name, Description: dto.Description})
	if err := s.repo.Create(ctx, row); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, internal.ErrDuplicateName.WithMessage("an agreement with this name already exists")
		}
		return nil, internal.NewInternalError("failed to create agreement", err)
	}

	s.logger.InfoContext(ctx, "agreement created", "agreement_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto AgreementDTO) (*Agreement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load agreement", err)
	}
	if row == nil {
		return nil, ErrAgreementNotFound
	}

	row.Name = dto.Name
	row.Description = dto.Description
	if err := s.repo.Update(ctx, row); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, internal.ErrDuplicateName.WithMessage("an agreement with this name already exists")
		}
		return nil, internal.NewInternalError("failed to update agreement", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actorID, id int64, force bool) (DeleteResponse, error) {
	cleared, err := s.repo.Delete(ctx, id, force)
	if err != nil {
		var inUse *database.ReferenceInUseError
		if errors.As(err, &inUse) {
			return DeleteResponse{}, internal.NewReferenceInUseError(
				"agreement is referenced by contractors; retry with force=true", inUse.References)
		}
		if errors.Is(err, ErrAgreementNotFound) {
			return DeleteResponse{}, ErrAgreementNotFound
		}
		return DeleteResponse{}, internal.NewInternalError("failed to delete agreement", err)
	}

	s.logger.InfoContext(ctx, "agreement deleted", "agreement_id", id, "force", force, "cleared_references", cleared)
	if cleared > 0 {
		if err := s.publisher.Publish(ctx, events.NewReferenceForceDeleted("agreement", id, actorID, cleared)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish agreement deletion", "error", err)
		}
	}
	return DeleteResponse{ID: id, ClearedReferences: cleared}, nil
}
