package city_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/city"
	cityPostgres "github.com/frahmantamala/crm-backoffice/internal/city/postgres"
	"github.com/frahmantamala/crm-backoffice/internal/core/database/sqlitetest"
	cityDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/city"
	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	servicePointDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/servicepoint"
	"github.com/frahmantamala/crm-backoffice/internal/transport"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("City Handler Integration", func() {
	var (
		db     *gorm.DB
		router *chi.Mux
		admin  = &internal.User{ID: 1, Login: "admin", Permissions: []string{"ADMIN"}}
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		req = req.WithContext(internal.ContextWithUser(req.Context(), admin))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		db, err = sqlitetest.Open()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sqlitetest.Close, db)

		slogger := logger.Discard()
		service := city.NewService(cityPostgres.NewCityRepository(db), nil, slogger)
		handler := city.NewHandler(transport.NewBaseHandler(slogger), service)

		router = chi.NewRouter()
		router.Get("/cities", handler.ListCities)
		router.Post("/cities", handler.CreateCity)
		router.Put("/cities/{id}", handler.UpdateCity)
		router.Delete("/cities/{id}", handler.DeleteCity)
	})

	It("creates and lists cities ordered by name", func() {
		Expect(do(http.MethodPost, "/cities", `{"name":"Omsk"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/cities", `{"name":"Kazan"}`).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/cities", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp city.CitiesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Cities).To(HaveLen(2))
		Expect(resp.Cities[0].Name).To(Equal("Kazan"))
	})

	It("rejects duplicate names with 409", func() {
		Expect(do(http.MethodPost, "/cities", `{"name":"Omsk"}`).Code).To(Equal(http.StatusCreated))
		w := do(http.MethodPost, "/cities", `{"name":"Omsk"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("DUPLICATE_NAME"))
	})

	It("rejects blank names with 400", func() {
		Expect(do(http.MethodPost, "/cities", `{"name":"   "}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("renames a city", func() {
		c := &cityDatamodel.City{Name: "Omsk"}
		Expect(db.Create(c).Error).To(Succeed())

		w := do(http.MethodPut, "/cities/"+itoa(c.ID), `{"name":"Tomsk"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Tomsk"))
	})

	It("returns 404 for an unknown city", func() {
		Expect(do(http.MethodPut, "/cities/999", `{"name":"X"}`).Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodDelete, "/cities/999", "").Code).To(Equal(http.StatusNotFound))
	})

	Describe("deleting a referenced city", func() {
		var (
			c     *cityDatamodel.City
			first *contractorDatamodel.Contractor
			other *contractorDatamodel.Contractor
			point *servicePointDatamodel.ServicePoint
		)

		BeforeEach(func() {
			c = &cityDatamodel.City{Name: "Omsk"}
			Expect(db.Create(c).Error).To(Succeed())

			first = &contractorDatamodel.Contractor{Name: "Alpha", TaxID: "1", Status: "ACTIVE", PrimaryCityID: &c.ID, Version: 1}
			other = &contractorDatamodel.Contractor{Name: "Beta", TaxID: "2", Status: "ACTIVE", PrimaryCityID: &c.ID, Version: 1}
			Expect(db.Create(first).Error).To(Succeed())
			Expect(db.Create(other).Error).To(Succeed())

			point = &servicePointDatamodel.ServicePoint{ContractorID: first.ID, Name: "Depot", CityID: &c.ID}
			Expect(db.Create(point).Error).To(Succeed())
		})

		It("fails without force and leaves every row unchanged", func() {
			w := do(http.MethodDelete, "/cities/"+itoa(c.ID), "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("REFERENCE_IN_USE"))

			var reloadedFirst, reloadedOther contractorDatamodel.Contractor
			Expect(db.First(&reloadedFirst, first.ID).Error).To(Succeed())
			Expect(reloadedFirst.PrimaryCityID).To(HaveValue(Equal(c.ID)))
			Expect(reloadedFirst.Version).To(Equal(int64(1)))
			Expect(db.First(&reloadedOther, other.ID).Error).To(Succeed())
			Expect(reloadedOther.PrimaryCityID).To(HaveValue(Equal(c.ID)))
			Expect(reloadedOther.Version).To(Equal(int64(1)))

			var count int64
			Expect(db.Model(&cityDatamodel.City{}).Where("id = ?", c.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("nulls every reference and deletes with force", func() {
			w := do(http.MethodDelete, "/cities/"+itoa(c.ID)+"?force=true", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp city.DeleteResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.ClearedReferences).To(Equal(int64(3)))

			var reloadedFirst, reloadedOther contractorDatamodel.Contractor
			Expect(db.First(&reloadedFirst, first.ID).Error).To(Succeed())
			Expect(reloadedFirst.PrimaryCityID).To(BeNil())
			Expect(reloadedFirst.Version).To(Equal(int64(2)))
			Expect(db.First(&reloadedOther, other.ID).Error).To(Succeed())
			Expect(reloadedOther.PrimaryCityID).To(BeNil())
			Expect(reloadedOther.Version).To(Equal(int64(2)))

			var sp servicePointDatamodel.ServicePoint
			Expect(db.First(&sp, point.ID).Error).To(Succeed())
			Expect(sp.CityID).To(BeNil())

			var count int64
			Expect(db.Model(&cityDatamodel.City{}).Where("id = ?", c.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	It("deletes an unreferenced city without force", func() {
		c := &cityDatamodel.City{Name: "Omsk"}
		Expect(db.Create(c).Error).To(Succeed())
		Expect(do(http.MethodDelete, "/cities/"+itoa(c.ID), "").Code).To(Equal(http.StatusOK))
	})
})
