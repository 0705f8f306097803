package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	roleDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/role"
	"github.com/frahmantamala/crm-backoffice/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetAll(ctx context.Context) ([]*role.Role, error) {
	var rows []*roleDatamodel.Role
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	perms, err := permissionsByRole(r.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	roles := make([]*role.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, role.FromDataModel(row, perms[row.ID]))
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RoleRepository) GetDefault(ctx context.Context) (*role.Role, error) {
	return r.first(ctx, "is_default = ?", true)
}

func (r *RoleRepository) first(ctx context.Context, query string, args ...interface{}) (*role.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	perms, err := permissionsByRole(r.db.WithContext(ctx), []int64{row.ID})
	if err != nil {
		return nil, err
	}
	return role.FromDataModel(&row, perms[row.ID]), nil
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role, permissions []string) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if row.IsDefault {
			if err := clearDefaults(tx, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return replacePermissions(tx, row.ID, permissions)
	})
}

func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role, permissions []string) error {
	return database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if row.IsDefault {
			if err := clearDefaults(tx, row.ID); err != nil {
				return err
			}
		}
		err := tx.Model(&roleDatamodel.Role{}).Where("id = ?", row.ID).Updates(map[string]interface{}{
			"name":       row.Name,
			"is_default": row.IsDefault,
			"color":      row.Color,
		}).Error
		if err != nil {
			return err
		}
		return replacePermissions(tx, row.ID, permissions)
	})
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := database.RunInTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&roleDatamodel.Role{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func clearDefaults(tx *gorm.DB, exceptID int64) error {
	return tx.Model(&roleDatamodel.Role{}).
		Where("is_default = ? AND id <> ?", true, exceptID).
		Update("is_default", false).Error
}

func replacePermissions(tx *gorm.DB, roleID int64, permissions []string) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
		return err
	}
	ids, err := database.ResolvePermissionIDs(tx, permissions)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	rows := make([]roleDatamodel.RolePermission, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, roleDatamodel.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return tx.Create(&rows).Error
}

type rolePermissionRow struct {
	RoleID int64
	Name   string
}

func permissionsByRole(db *gorm.DB, roleIDs []int64) (map[int64][]string, error) {
	out := make(map[int64][]string, len(roleIDs))
	if len(roleIDs) == 0 {
		return out, nil
	}

	var rows []rolePermissionRow
	err := db.Table("role_permissions rp").
		Select("rp.role_id AS role_id, p.name AS name").
		Joins("JOIN permissions p ON p.id = rp.permission_id").
		Where("rp.role_id IN ?", roleIDs).
		Order("p.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RoleID] = append(out[row.RoleID], row.Name)
	}
	return out, nil
}
