package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"gorm.io/gorm"
)

var errNotPending = errors.New("suggestion is not pending")

type SuggestionRepository struct {
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

func (r *SuggestionRepository) Create(ctx context.Context, row *contractorDatamodel.ContractorSuggestion, stagedFileIDs []int64) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		if len(stagedFileIDs) == 0 {
			return nil
		}

		res := tx.Model(&contractorDatamodel.ContractorFile{}).
			Where("id IN ? AND contractor_id = ? AND staged = ? AND suggestion_id IS NULL AND uploaded_by = ?",
				stagedFileIDs, row.ContractorID, true, row.AuthorID).
			Update("suggestion_id", row.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(stagedFileIDs)) {
			return contractor.ErrInvalidStagedFiles
		}
		return nil
	})
}

func (r *SuggestionRepository) GetByID(ctx context.Context, id int64) (*contractorDatamodel.ContractorSuggestion, error) {
	var s contractorDatamodel.ContractorSuggestion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SuggestionRepository) List(ctx context.Context, filter contractor.SuggestionFilter) ([]*contractorDatamodel.ContractorSuggestion, error) {
	q := r.db.WithContext(ctx).
		Table("contractor_suggestions s").
		Select("s.*").
		Joins("JOIN contractors c ON c.id = s.contractor_id")

	switch filter.Hidden {
	case auth.HiddenAll:
	case auth.HiddenOwn:
		q = q.Where("(c.is_hidden = ? OR c.manager_id = ? OR c.creator_id = ?)", false, filter.ViewerID, filter.ViewerID)
	default:
		q = q.Where("c.is_hidden = ?", false)
	}
	if filter.Status != "" {
		q = q.Where("s.status = ?", string(filter.Status))
	}
	if filter.ContractorID != nil {
		q = q.Where("s.contractor_id = ?", *filter.ContractorID)
	}
	if filter.AuthorID != nil {
		q = q.Where("s.author_id = ?", *filter.AuthorID)
	}
	if filter.ReviewableBy != nil {
		uid := *filter.ReviewableBy
		q = q.Where("(c.manager_id = ? OR c.creator_id = ? OR s.author_id = ?)", uid, uid, uid)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []*contractorDatamodel.ContractorSuggestion
	err := q.Order("s.created_at DESC").Order("s.id DESC").Find(&rows).Error
	return rows, err
}

func (r *SuggestionRepository) Approve(ctx context.Context, review contractor.Review, columns map[string]interface{}, removals []int64) (bool, error) {
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := transition(tx, review, contractor.SuggestionApproved); err != nil {
			return err
		}

		var current contractorDatamodel.Contractor
		if err := tx.Select("id", "version").Where("id = ?", review.ContractorID).First(&current).Error; err != nil {
			return err
		}
		ok, err := updateVersioned(tx, review.ContractorID, current.Version, columns)
		if err != nil {
			return err
		}
		if !ok {
			return internal.ErrVersionConflict
		}

		if err := tx.Model(&contractorDatamodel.ContractorFile{}).
			Where("suggestion_id = ? AND staged = ?", review.SuggestionID, true).
			Updates(map[string]interface{}{"staged": false}).Error; err != nil {
			return err
		}
		if len(removals) > 0 {
			if err := tx.Where("contractor_id = ? AND id IN ? AND staged = ?", review.ContractorID, removals, false).
				Delete(&contractorDatamodel.ContractorFile{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errNotPending) {
		return false, nil
	}
	return err == nil, err
}

func (r *SuggestionRepository) Reject(ctx context.Context, review contractor.Review) (bool, error) {
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := transition(tx, review, contractor.SuggestionRejected); err != nil {
			return err
		}
		return tx.Where("suggestion_id = ? AND staged = ?", review.SuggestionID, true).
			Delete(&contractorDatamodel.ContractorFile{}).Error
	})
	if errors.Is(err, errNotPending) {
		return false, nil
	}
	return err == nil, err
}

// transition moves a pending suggestion to status. Zero affected rows means
// another review won the race.
func transition(tx *gorm.DB, review contractor.Review, status contractor.SuggestionStatus) error {
	res := tx.Model(&contractorDatamodel.ContractorSuggestion{}).
		Where("id = ? AND status = ?", review.SuggestionID, string(contractor.SuggestionPending)).
		Updates(map[string]interface{}{
			"status":         string(status),
			"reviewer_id":    review.ReviewerID,
			"reviewed_at":    review.At,
			"review_comment": review.Comment,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNotPending
	}
	return nil
}
