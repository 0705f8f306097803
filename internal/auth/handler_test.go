package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Handler", func() {
	var (
		repo    *mockUserRepository
		handler *Handler
		seen    *internal.User
		chain   http.Handler
	)

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		tokenGen := NewJWTTokenGenerator("handler-access-secret-0123456789abcd", "handler-refresh-secret-0123456789abc", time.Minute, time.Hour)
		handler = NewHandler(NewService(repo, tokenGen, logger.Discard()))
		seen = nil
		chain = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = internal.UserFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
	})

	login := func(name string) AuthTokens {
		tokens, err := handler.Service.Authenticate(context.Background(), LoginDTO{Login: name, Password: "correct_password"})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return tokens
	}

	ginkgo.Describe("Login", func() {
		ginkgo.It("returns tokens for valid credentials", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"login":"ivanov","password":"correct_password"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("access_token"))
		})

		ginkgo.It("returns 401 for a wrong password", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"login":"ivanov","password":"nope"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("INVALID_CREDENTIALS"))
		})

		ginkgo.It("returns 400 for unknown fields", func() {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"x"}`))
			rec := httptest.NewRecorder()
			handler.Login(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})

	ginkgo.Describe("AuthMiddleware", func() {
		ginkgo.It("rejects requests without a bearer token", func() {
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contractors", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("attaches the user with permissions loaded from the store", func() {
			tokens := login("manager")
			req := httptest.NewRequest(http.MethodGet, "/contractors", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.ID).To(gomega.Equal(int64(3)))
			gomega.Expect(seen.Permissions).To(gomega.ContainElement(PermEditOwnClient))
		})

		ginkgo.It("picks up permission changes without a new login", func() {
			tokens := login("manager")
			repo.usersByID[3] = &internal.User{ID: 3, Login: "manager", Permissions: []string{PermAdmin}}

			req := httptest.NewRequest(http.MethodGet, "/contractors", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			chain.ServeHTTP(httptest.NewRecorder(), req)

			gomega.Expect(seen.Permissions).To(gomega.Equal([]string{PermAdmin}))
		})

		ginkgo.It("rejects refresh tokens", func() {
			tokens := login("manager")
			req := httptest.NewRequest(http.MethodGet, "/contractors", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
			rec := httptest.NewRecorder()
			chain.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})

	ginkgo.It("Logout answers 204 for a valid token", func() {
		tokens := login("ivanov")
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		handler.Logout(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
	})
})
