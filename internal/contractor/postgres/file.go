package postgres

import (
	"context"

	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"gorm.io/gorm"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// ListLive returns the published files of a contractor. Staged files stay out
// until their suggestion is approved.
func (r *FileRepository) ListLive(ctx context.Context, contractorID int64) ([]*contractorDatamodel.ContractorFile, error) {
	var files []*contractorDatamodel.ContractorFile
	err := r.db.WithContext(ctx).
		Where("contractor_id = ? AND staged = ?", contractorID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&files).Error
	return files, err
}

func (r *FileRepository) CountLive(ctx context.Context, contractorID int64, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&contractorDatamodel.ContractorFile{}).
		Where("contractor_id = ? AND staged = ? AND id IN ?", contractorID, false, ids).
		Count(&n).Error
	return n, err
}

func (r *FileRepository) Create(ctx context.Context, f *contractorDatamodel.ContractorFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FileRepository) DeleteLive(ctx context.Context, contractorID, fileID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND contractor_id = ? AND staged = ?", fileID, contractorID, false).
		Delete(&contractorDatamodel.ContractorFile{})
	return res.RowsAffected > 0, res.Error
}
