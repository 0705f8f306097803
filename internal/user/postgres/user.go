package user

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"github.com/frahmantamala/crm-backoffice/internal/user"
	"gorm.io/gorm"
)

// userReferences are the nullable columns pointing at users. They are cleared
// when a user is deleted so contractors, suggestions and files survive.
var userReferences = []database.Reference{
	{Table: "contractors", Column: "manager_id", Versioned: true},
	{Table: "contractors", Column: "creator_id", Versioned: true},
	{Table: "contractor_suggestions", Column: "author_id"},
	{Table: "contractor_suggestions", Column: "reviewer_id"},
	{Table: "contractor_files", Column: "uploaded_by"},
	{Table: "user_permissions", Column: "granted_by"},
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	var rows []*userDatamodel.User
	err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	perms, err := permissionsByUser(r.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, user.FromDataModelWithPermissions(row, perms[row.ID]))
	}
	return users, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	perms, err := permissionsByUser(r.db.WithContext(ctx), []int64{userID})
	if err != nil {
		return nil, err
	}
	return user.FromDataModelWithPermissions(&row, perms[userID]), nil
}

func (r *Repository) GetPasswordHash(ctx context.Context, userID int64) (string, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).Select("password_hash").Where("id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return row.PasswordHash, err
}

func (r *Repository) Create(ctx context.Context, u *userDatamodel.User, permissions []string, grantedBy int64) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return replacePermissions(tx, u.ID, permissions, grantedBy)
	})
}

func (r *Repository) Update(ctx context.Context, userID int64, fields map[string]interface{}, permissions *[]string, grantedBy int64) (bool, error) {
	found := false
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		found = true

		if len(fields) > 0 {
			if err := tx.Model(&userDatamodel.User{}).Where("id = ?", userID).Updates(fields).Error; err != nil {
				return err
			}
		}
		if permissions != nil {
			return replacePermissions(tx, userID, *permissions, grantedBy)
		}
		return nil
	})
	return found, err
}

func (r *Repository) Delete(ctx context.Context, userID int64) (bool, error) {
	deleted := false
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if _, err := database.ClearReferences(tx, userID, userReferences...); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&userDatamodel.UserPermission{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", userID).Delete(&userDatamodel.User{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func replacePermissions(tx *gorm.DB, userID int64, permissions []string, grantedBy int64) error {
	if err := tx.Where("user_id = ?", userID).Delete(&userDatamodel.UserPermission{}).Error; err != nil {
		return err
	}
	ids, err := database.ResolvePermissionIDs(tx, permissions)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	var granter *int64
	if grantedBy != 0 {
		granter = &grantedBy
	}
	rows := make([]userDatamodel.UserPermission, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, userDatamodel.UserPermission{UserID: userID, PermissionID: id, GrantedBy: granter})
	}
	return tx.Create(&rows).Error
}

type userPermissionRow struct {
	UserID int64
	Name   string
}

func permissionsByUser(db *gorm.DB, userIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []userPermissionRow
	err := db.Table("user_permissions up").
		Select("up.user_id AS user_id, p.name AS name").
		Joins("JOIN permissions p ON p.id = up.permission_id").
		Where("up.user_id IN ?", userIDs).
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Name)
	}
	return out, nil
}
