package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/agreement"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	agreementDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/agreement"
	"gorm.io/gorm"
)

var agreementReferences = []database.Reference{
	{Table: "contractors", Column: "agreement_id", Versioned: true},
}

type AgreementRepository struct {
	db *gorm.DB
}

func NewAgreementRepository(db *gorm.DB) agreement.RepositoryAPI {
	return &AgreementRepository{db: db}
}

func (r *AgreementRepository) GetAll(ctx context.Context) ([]*agreementDatamodel.Agreement, error) {
	var agreements []*agreementDatamodel.Agreement
	err := r.db.WithContext(ctx).Order("name ASC").Find(&agreements).Error
	return agreements, err
}

func (r *AgreementRepository) GetByID(ctx context.Context, id int64) (*agreementDatamodel.Agreement, error) {
	var a agreementDatamodel.Agreement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AgreementRepository) Create(ctx context.Context, a *agreementDatamodel.Agreement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AgreementRepository) Update(ctx context.Context, a *agreementDatamodel.Agreement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *AgreementRepository) Delete(ctx context.Context, id int64, force bool) (int64, error) {
	var cleared int64
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		var err error
		cleared, err = database.DeleteReferenced(tx, &agreementDatamodel.Agreement{}, id, force, agreementReferences...)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, agreement.ErrAgreementNotFound
	}
	return cleared, err
}
