package contractor

import (
	"context"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
)

func (s *Service) ListFiles(ctx context.Context, actor *internal.User, contractorID int64) ([]*File, error) {
	if _, err := s.visible(ctx, actor, contractorID); err != nil {
		return nil, err
	}
	rows, err := s.files.ListLive(ctx, contractorID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list files", err)
	}
	files := make([]*File, 0, len(rows))
	for _, row := range rows {
		files = append(files, FileFromDataModel(row))
	}
	return files, nil
}

// RegisterFile records the metadata of an uploaded document. Editors get a
// live file; actors that may only suggest get a staged file, which becomes
// live once a suggestion adding it is approved.
func (s *Service) RegisterFile(ctx context.Context, actor *internal.User, contractorID int64, dto RegisterFileDTO) (*File, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	target, err := s.visible(ctx, actor, contractorID)
	if err != nil {
		return nil, err
	}

	staged := false
	if !s.policy.Allow(actor, auth.ActionEdit, Ownership(target)) {
		if !auth.CanSuggest(actor.Permissions) {
			return nil, s.policy.Authorize(ctx, actor, auth.ActionEdit, Ownership(target))
		}
		staged = true
	}

	if dto.ServicePointID != nil {
		ok, err := s.repo.ServicePointBelongs(ctx, contractorID, *dto.ServicePointID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check service point", err)
		}
		if !ok {
			return nil, internal.ErrInvalidReference.WithMessage("service point does not belong to this contractor")
		}
	}

	uploader := actor.ID
	row := &contractorDatamodel.ContractorFile{
		ContractorID:   contractorID,
		ServicePointID: dto.ServicePointID,
		Staged:         staged,
		Name:           dto.Name,
		MimeType:       dto.MimeType,
		SizeBytes:      dto.SizeBytes,
		StorageKey:     StorageKey(contractorID, dto.Name),
		UploadedBy:     &uploader,
	}
	if err := s.files.Create(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to register file", err)
	}

	s.logger.InfoContext(ctx, "file registered",
		"file_id", row.ID,
		"contractor_id", contractorID,
		"user_id", actor.ID,
		"staged", staged)
	return FileFromDataModel(row), nil
}

func (s *Service) DeleteFile(ctx context.Context, actor *internal.User, contractorID, fileID int64) error {
	target, err := s.visible(ctx, actor, contractorID)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, actor, auth.ActionEdit, Ownership(target)); err != nil {
		return err
	}

	deleted, err := s.files.DeleteLive(ctx, contractorID, fileID)
	if err != nil {
		return internal.NewInternalError("failed to delete file", err)
	}
	if !deleted {
		return ErrFileNotFound
	}
	s.logger.InfoContext(ctx, "file deleted", "file_id", fileID, "contractor_id", contractorID, "user_id", actor.ID)
	return nil
}
