package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/city"
	"github.com/frahmantamala/crm-backoffice/internal/transport"
	"github.com/frahmantamala/crm-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/crm-backoffice/internal/transport/rest"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

type stubAuthService struct {
	users map[string]*internal.User
}

func (s *stubAuthService) Authenticate(context.Context, auth.LoginDTO) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidCredentials
}

func (s *stubAuthService) RefreshTokens(context.Context, string) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidToken
}

func (s *stubAuthService) ValidateAccessToken(token string) (*auth.Claims, error) {
	u, ok := s.users[token]
	if !ok {
		return nil, internal.ErrInvalidToken
	}
	return &auth.Claims{UserID: u.ID, Login: u.Login}, nil
}

func (s *stubAuthService) GetUserWithPermissions(_ context.Context, userID int64) (*internal.User, error) {
	for _, u := range s.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, internal.ErrInvalidToken
}

type stubChecker struct {
	name string
	err  error
}

func (c stubChecker) Name() string                { return c.name }
func (c stubChecker) Check(context.Context) error { return c.err }

var _ = Describe("Router", func() {
	var router *chi.Mux

	build := func(checkers ...rest.Checker) {
		lg := logger.Discard()
		router = chi.NewRouter()
		svc := &stubAuthService{users: map[string]*internal.User{
			"plain":  {ID: 1, Login: "plain", Permissions: []string{}},
			"editor": {ID: 2, Login: "editor", Permissions: []string{auth.PermEditCities}},
		}}
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:   auth.NewHandler(svc),
			City:   city.NewHandler(transport.NewBaseHandler(lg), nil),
			Health: rest.NewHealthHandler(checkers...),
		}, rest.Options{AllowedOrigins: []string{"http://localhost:3000"}}, lg)
	}

	request := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("reports healthy components", func() {
		build(stubChecker{name: "postgres"})
		w := request(http.MethodGet, "/api/v1/health", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp rest.HealthResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveKey("postgres"))
	})

	It("answers 503 when any component fails", func() {
		build(stubChecker{name: "postgres"}, stubChecker{name: "nats", err: errors.New("not connected")})
		w := request(http.MethodGet, "/api/v1/health", "")
		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))

		var resp rest.HealthResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
		Expect(resp.Components["nats"].Message).To(Equal("not connected"))
		Expect(resp.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
	})

	It("sets a trace id on every response", func() {
		build()
		w := request(http.MethodGet, "/api/v1/ping", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
	})

	It("requires a bearer token on protected routes", func() {
		build()
		Expect(request(http.MethodPost, "/api/v1/cities", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(request(http.MethodPost, "/api/v1/cities", "bogus").Code).To(Equal(http.StatusUnauthorized))
	})

	It("guards reference data writes with the matching permission", func() {
		build()
		w := request(http.MethodDelete, "/api/v1/cities/1", "plain")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInsufficientPermissions)))
	})

	It("answers CORS preflight for allowed origins", func() {
		build()
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/cities", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
	})
})
