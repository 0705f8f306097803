package user_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/core/database/sqlitetest"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/role"
	rolePostgres "github.com/frahmantamala/crm-backoffice/internal/role/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/crm-backoffice/internal/user/postgres"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

func strPtr(s string) *string { return &s }

var _ = Describe("User Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		roles   *role.Service
		service *user.Service
		adminID int64
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sqlitetest.Close, db)

		names := make([]string, 0)
		for _, p := range auth.Catalogue() {
			names = append(names, p.Name)
		}
		Expect(sqlitetest.SeedPermissions(db, names...)).To(Succeed())

		slogger := logger.Discard()
		roles = role.NewService(rolePostgres.NewRoleRepository(db), slogger)
		service = user.NewService(userPostgres.NewRepository(db), roles, bcrypt.MinCost, slogger)

		admin, err := service.Create(ctx, 0, user.CreateUserDTO{
			Name: "Admin", Login: "admin", Password: "supersecret",
			Permissions: &[]string{auth.PermAdmin},
		})
		Expect(err).NotTo(HaveOccurred())
		adminID = admin.ID
	})

	Describe("Create", func() {
		It("copies permissions from the given role", func() {
			r, err := roles.Create(ctx, role.RoleDTO{Name: "Manager", Permissions: []string{auth.PermEditOwnClient, auth.PermCreateClient}})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.Create(ctx, adminID, user.CreateUserDTO{Name: "Ivan", Login: "ivan", Password: "password1", RoleID: &r.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(Equal([]string{auth.PermCreateClient, auth.PermEditOwnClient}))

			By("later role edits do not propagate")
			_, err = roles.Update(ctx, r.ID, role.RoleDTO{Name: "Manager", Permissions: []string{auth.PermAdmin}})
			Expect(err).NotTo(HaveOccurred())
			reloaded, err := service.GetByID(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Permissions).To(Equal([]string{auth.PermCreateClient, auth.PermEditOwnClient}))
		})

		It("uses the explicit list when no role is given", func() {
			u, err := service.Create(ctx, adminID, user.CreateUserDTO{
				Name: "Olga", Login: "olga", Password: "password1",
				Permissions: &[]string{auth.PermSuggestEdits, auth.PermSuggestEdits},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(Equal([]string{auth.PermSuggestEdits}))
		})

		It("falls back to the default role", func() {
			_, err := roles.Create(ctx, role.RoleDTO{Name: "Base", IsDefault: true, Permissions: []string{auth.PermSuggestEdits}})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.Create(ctx, adminID, user.CreateUserDTO{Name: "Petr", Login: "petr", Password: "password1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Permissions).To(Equal([]string{auth.PermSuggestEdits}))
		})

		It("rejects unknown permissions", func() {
			_, err := service.Create(ctx, adminID, user.CreateUserDTO{
				Name: "X", Login: "xxx", Password: "password1", Permissions: &[]string{"FLY"},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("rejects a taken login", func() {
			_, err := service.Create(ctx, adminID, user.CreateUserDTO{Name: "Other", Login: "admin", Password: "password1"})
			Expect(errors.Is(err, internal.ErrDuplicateName)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("replaces the permission set", func() {
			u, err := service.Create(ctx, adminID, user.CreateUserDTO{Name: "Ivan", Login: "ivan", Password: "password1", Permissions: &[]string{auth.PermEditCities}})
			Expect(err).NotTo(HaveOccurred())
			updated, err := service.Update(ctx, adminID, u.ID, user.UpdateUserDTO{
				Name: strPtr("Ivan I."), Permissions: &[]string{auth.PermEditAddons},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Ivan I."))
			Expect(updated.Permissions).To(Equal([]string{auth.PermEditAddons}))
		})

		It("returns not found for unknown users", func() {
			_, err := service.Update(ctx, adminID, 999, user.UpdateUserDTO{Name: strPtr("Ghost")})
			Expect(errors.Is(err, user.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("UpdateMe", func() {
		It("needs the current password to change it", func() {
			_, err := service.UpdateMe(ctx, adminID, user.UpdateMeDTO{CurrentPassword: "wrong-one", NewPassword: strPtr("newsecret1")})
			Expect(err).To(HaveOccurred())

			_, err = service.UpdateMe(ctx, adminID, user.UpdateMeDTO{CurrentPassword: "supersecret", NewPassword: strPtr("newsecret1")})
			Expect(err).NotTo(HaveOccurred())

			var hash string
			Expect(db.Table("users").Select("password_hash").Where("id = ?", adminID).Scan(&hash).Error).To(Succeed())
			Expect(bcrypt.CompareHashAndPassword([]byte(hash), []byte("newsecret1"))).To(Succeed())
		})

		It("changes the display name without a password", func() {
			u, err := service.UpdateMe(ctx, adminID, user.UpdateMeDTO{Name: strPtr("Boss")})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Boss"))
		})
	})

	Describe("Delete", func() {
		It("refuses to delete yourself", func() {
			err := service.Delete(ctx, adminID, adminID)
			Expect(errors.Is(err, user.ErrSelfDelete)).To(BeTrue())
		})

		It("clears contractor ownership of the deleted user", func() {
			u, err := service.Create(ctx, adminID, user.CreateUserDTO{Name: "Ivan", Login: "ivan", Password: "password1"})
			Expect(err).NotTo(HaveOccurred())

			c := &contractorDatamodel.Contractor{Name: "Alpha", TaxID: "1", Status: "ACTIVE", ManagerID: &u.ID, CreatorID: &u.ID, Version: 1}
			Expect(db.Create(c).Error).To(Succeed())

			Expect(service.Delete(ctx, adminID, u.ID)).To(Succeed())

			var reloaded contractorDatamodel.Contractor
			Expect(db.First(&reloaded, c.ID).Error).To(Succeed())
			Expect(reloaded.ManagerID).To(BeNil())
			Expect(reloaded.CreatorID).To(BeNil())
			Expect(reloaded.Version).To(BeNumerically(">", 1))

			_, err = service.GetByID(ctx, u.ID)
			Expect(errors.Is(err, user.ErrUserNotFound)).To(BeTrue())
		})
	})

	Describe("Handler", func() {
		It("serves the current user", func() {
			h := user.NewHandler(service)
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: adminID, Login: "admin"}))
			w := httptest.NewRecorder()

			h.GetCurrentUser(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"login":"admin"`))
			Expect(w.Body.String()).NotTo(ContainSubstring("password"))
		})

		It("answers 400 on self delete", func() {
			h := user.NewHandler(service)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", strconv.FormatInt(adminID, 10))
			req := httptest.NewRequest(http.MethodDelete, "/users/"+strconv.FormatInt(adminID, 10), nil)
			routed := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(internal.ContextWithUser(routed, &internal.User{ID: adminID}))
			w := httptest.NewRecorder()

			h.DeleteUser(w, req)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeSelfDelete)))
		})
	})
})
