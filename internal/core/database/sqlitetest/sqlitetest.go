// Package sqlitetest opens an in-memory SQLite database with the full schema
// migrated, for repository and handler tests.
package sqlitetest

import (
	"fmt"

	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
	agreementDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/agreement"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	roleDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/role"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the application owns.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.User{},
		&userDatamodel.Permission{},
		&userDatamodel.UserPermission{},
		&roleDatamodel.Role{},
		&roleDatamodel.RolePermission{},
		&cityDatamodel.City{},
		&agreementDatamodel.Agreement{},
		&addonDatamodel.Addon{},
		&contractorDatamodel.Contractor{},
		&contractorDatamodel.ContractorSuggestion{},
		&contractorDatamodel.ContractorFile{},
		&servicePointDatamodel.ServicePoint{},
		&servicePointDatamodel.ServicePointAddon{},
	}
}

// Open returns a migrated in-memory database. The pool is pinned to a single
// connection because every sqlite :memory: connection is a separate database.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return db, nil
}

// SQLX wraps the gorm pool for code that talks to the database through sqlx.
func SQLX(db *gorm.DB) (*sqlx.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(sqlDB, "sqlite3"), nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SeedPermissions inserts the given permission names.
func SeedPermissions(db *gorm.DB, names ...string) error {
	for _, n := range names {
		p := userDatamodel.Permission{Name: n}
		if err := db.Where(userDatamodel.Permission{Name: n}).FirstOrCreate(&p).Error; err != nil {
			return err
		}
	}
	return nil
}
