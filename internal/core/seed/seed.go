// Package seed loads YAML fixtures into the database. Every step is an upsert
// keyed on a unique name, so running it twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	addonDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/addon"
	agreementDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/agreement"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	roleDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Fixture struct {
	Roles      []RoleFixture  `yaml:"roles"`
	Users      []UserFixture  `yaml:"users"`
	Cities     []string       `yaml:"cities"`
	Agreements []NamedFixture `yaml:"agreements"`
	Addons     []AddonFixture `yaml:"addons"`
}

type RoleFixture struct {
	Name        string   `yaml:"name"`
	Default     bool     `yaml:"default"`
	Color       string   `yaml:"color"`
	Permissions []string `yaml:"permissions"`
}

// UserFixture takes its permissions from Role when set, otherwise from
// Permissions.
type UserFixture struct {
	Login       string   `yaml:"login"`
	Name        string   `yaml:"name"`
	Password    string   `yaml:"password"`
	Role        string   `yaml:"role"`
	Permissions []string `yaml:"permissions"`
}

type NamedFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type AddonFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// Load reads a fixture file.
func Load(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

// Validate checks every permission name against the catalogue and every
// user role against the fixture's roles.
func (fx *Fixture) Validate() error {
	roles := make(map[string]struct{}, len(fx.Roles))
	for _, r := range fx.Roles {
		if unknown := auth.UnknownPermissions(r.Permissions); len(unknown) > 0 {
			return fmt.Errorf("role %s: unknown permissions %v", r.Name, unknown)
		}
		roles[r.Name] = struct{}{}
	}
	for _, u := range fx.Users {
		if u.Login == "" || u.Password == "" {
			return fmt.Errorf("user %q: login and password are required", u.Login)
		}
		if unknown := auth.UnknownPermissions(u.Permissions); len(unknown) > 0 {
			return fmt.Errorf("user %s: unknown permissions %v", u.Login, unknown)
		}
		if u.Role != "" {
			if _, ok := roles[u.Role]; !ok {
				return fmt.Errorf("user %s: unknown role %s", u.Login, u.Role)
			}
		}
	}
	return nil
}

type Seeder struct {
	db         *gorm.DB
	bcryptCost int
	logger     *slog.Logger
}

func NewSeeder(db *gorm.DB, bcryptCost int, logger *slog.Logger) *Seeder {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Seeder{db: db, bcryptCost: bcryptCost, logger: logger}
}

// Apply writes the permission catalogue and the fixture in one transaction.
// Existing users keep their password; their permissions are topped up.
func (s *Seeder) Apply(ctx context.Context, fx *Fixture) error {
	return database.RunInTx(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.permissions(tx); err != nil {
			return err
		}
		rolePerms, err := s.roles(tx, fx.Roles)
		if err != nil {
			return err
		}
		if err := s.users(tx, fx.Users, rolePerms); err != nil {
			return err
		}
		return s.references(tx, fx)
	})
}

func (s *Seeder) permissions(tx *gorm.DB) error {
	for _, p := range auth.Catalogue() {
		row := userDatamodel.Permission{Name: p.Name}
		if err := tx.Where(userDatamodel.Permission{Name: p.Name}).
			Assign(userDatamodel.Permission{Description: p.Description}).
			FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Name, err)
		}
	}
	s.logger.Info("seeded permissions", "count", len(auth.Catalogue()))
	return nil
}

func (s *Seeder) roles(tx *gorm.DB, roles []RoleFixture) (map[string][]string, error) {
	out := make(map[string][]string, len(roles))
	for _, r := range roles {
		if r.Default {
			if err := tx.Model(&roleDatamodel.Role{}).Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return nil, err
			}
		}
		row := roleDatamodel.Role{Name: r.Name}
		if err := tx.Where(roleDatamodel.Role{Name: r.Name}).FirstOrCreate(&row).Error; err != nil {
			return nil, fmt.Errorf("seed role %s: %w", r.Name, err)
		}
		if err := tx.Model(&row).Updates(map[string]interface{}{
			"is_default": r.Default,
			"color":      r.Color,
		}).Error; err != nil {
			return nil, err
		}

		ids, err := database.ResolvePermissionIDs(tx, r.Permissions)
		if err != nil {
			return nil, err
		}
		for _, pid := range ids {
			link := roleDatamodel.RolePermission{RoleID: row.ID, PermissionID: pid}
			if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
				return nil, err
			}
		}
		out[r.Name] = r.Permissions
		s.logger.Info("seeded role", "name", r.Name, "permissions", len(ids))
	}
	return out, nil
}

func (s *Seeder) users(tx *gorm.DB, users []UserFixture, rolePerms map[string][]string) error {
	for _, u := range users {
		var row userDatamodel.User
		err := tx.Where("login = ?", u.Login).Take(&row).Error
		switch {
		case err == nil:
			s.logger.Info("user already exists; ensuring permissions", "login", u.Login)
		case errors.Is(err, gorm.ErrRecordNotFound):
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.Login, err)
			}
			name := u.Name
			if name == "" {
				name = u.Login
			}
			row = userDatamodel.User{Login: u.Login, Name: name, PasswordHash: string(hash)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Login, err)
			}
			s.logger.Info("seeded user", "login", u.Login)
		default:
			return err
		}

		perms := u.Permissions
		if u.Role != "" {
			perms = rolePerms[u.Role]
		}
		ids, err := database.ResolvePermissionIDs(tx, perms)
		if err != nil {
			return err
		}
		for _, pid := range ids {
			link := userDatamodel.UserPermission{UserID: row.ID, PermissionID: pid}
			if err := tx.Where(userDatamodel.UserPermission{UserID: row.ID, PermissionID: pid}).
				FirstOrCreate(&link).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) references(tx *gorm.DB, fx *Fixture) error {
	for _, name := range fx.Cities {
		row := cityDatamodel.City{Name: name}
		if err := tx.Where(cityDatamodel.City{Name: name}).FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed city %s: %w", name, err)
		}
	}
	for _, a := range fx.Agreements {
		row := agreementDatamodel.Agreement{Name: a.Name}
		if err := tx.Where(agreementDatamodel.Agreement{Name: a.Name}).
			Attrs(agreementDatamodel.Agreement{Description: a.Description}).
			FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed agreement %s: %w", a.Name, err)
		}
	}
	for _, a := range fx.Addons {
		row := addonDatamodel.Addon{Name: a.Name}
		if err := tx.Where(addonDatamodel.Addon{Name: a.Name}).
			Attrs(addonDatamodel.Addon{Description: a.Description, Color: a.Color}).
			FirstOrCreate(&row).Error; err != nil {
			return fmt.Errorf("seed addon %s: %w", a.Name, err)
		}
	}
	s.logger.Info("seeded reference data",
		"cities", len(fx.Cities),
		"agreements", len(fx.Agreements),
		"addons", len(fx.Addons))
	return nil
}
