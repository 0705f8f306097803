package auth

import (
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("RBACAuthorization", func() {
	var (
		rbac    *RBACAuthorization
		handler http.Handler
		called  bool
	)

	ginkgo.BeforeEach(func() {
		called = false
		rbac = NewRBACAuthorization(logger.Discard())
		handler = rbac.Require(PermEditCities)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		}))
	})

	serve := func(u *internal.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/cities", nil)
		if u != nil {
			req = req.WithContext(internal.ContextWithUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("returns 401 without a user", func() {
		rec := serve(nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(called).To(gomega.BeFalse())
	})

	ginkgo.It("returns 403 without the permission", func() {
		rec := serve(&internal.User{ID: 1, Permissions: []string{PermEditAddons}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("INSUFFICIENT_PERMISSIONS"))
		gomega.Expect(called).To(gomega.BeFalse())
	})

	ginkgo.It("passes with the permission", func() {
		rec := serve(&internal.User{ID: 1, Permissions: []string{PermEditCities}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(called).To(gomega.BeTrue())
	})

	ginkgo.It("passes for admins", func() {
		rec := serve(&internal.User{ID: 1, Permissions: []string{PermAdmin}})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})

	ginkgo.It("RequireAdmin rejects everybody else", func() {
		h := rbac.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: 2, Permissions: []string{PermEditAllClients}}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})
})
