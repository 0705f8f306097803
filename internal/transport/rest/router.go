package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/crm-backoffice/internal/addon"
	"github.com/frahmantamala/crm-backoffice/internal/agreement"
	"github.com/frahmantamala/crm-backoffice/internal/auth"
	"github.com/frahmantamala/crm-backoffice/internal/city"
	"github.com/frahmantamala/crm-backoffice/internal/contractor"
	"github.com/frahmantamala/crm-backoffice/internal/role"
	"github.com/frahmantamala/crm-backoffice/internal/servicepoint"
	"github.com/frahmantamala/crm-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/crm-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/crm-backoffice/internal/user"
	"github.com/go-chi/chi"
)

// Handlers collects every HTTP handler the router mounts. A nil handler
// leaves its routes out.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Role         *role.Handler
	City         *city.Handler
	Agreement    *agreement.Handler
	Addon        *addon.Handler
	Contractor   *contractor.Handler
	ServicePoint *servicepoint.Handler
	Health       *HealthHandler
}

// Options carries the cross cutting router settings.
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	OpenAPIPath    string
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts Options, logger *slog.Logger) {
	rbac := auth.NewRBACAuthorization(logger)
	if h.Health == nil {
		h.Health = NewHealthHandler()
	}

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if opts.RequestTimeout > 0 {
		router.Use(middleware.Timeout(opts.RequestTimeout))
	}

	// API document and UI live outside the versioned prefix
	if opts.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", h.Health.healthCheckHandler)
		r.Get("/ping", h.Health.pingHandler)

		if h.Auth == nil {
			return
		}
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Patch("/users/me", h.User.UpdateCurrentUser)

				pr.Group(func(ar chi.Router) {
					ar.Use(rbac.RequireAdmin())
					ar.Get("/permissions", h.User.ListPermissions)
					ar.Route("/users", func(ur chi.Router) {
						ur.Get("/", h.User.ListUsers)
						ur.Post("/", h.User.CreateUser)
						ur.Get("/{id}", h.User.GetUser)
						ur.Put("/{id}", h.User.UpdateUser)
						ur.Delete("/{id}", h.User.DeleteUser)
					})
				})
			}

			if h.Role != nil {
				pr.Route("/roles", func(rr chi.Router) {
					rr.Use(rbac.RequireAdmin())
					rr.Get("/", h.Role.ListRoles)
					rr.Post("/", h.Role.CreateRole)
					rr.Get("/{id}", h.Role.GetRole)
					rr.Put("/{id}", h.Role.UpdateRole)
					rr.Delete("/{id}", h.Role.DeleteRole)
				})
			}

			if h.City != nil {
				pr.Route("/cities", func(cr chi.Router) {
					cr.Get("/", h.City.ListCities)
					cr.Group(func(wr chi.Router) {
						wr.Use(rbac.Require(auth.PermEditCities))
						wr.Post("/", h.City.CreateCity)
						wr.Put("/{id}", h.City.UpdateCity)
						wr.Delete("/{id}", h.City.DeleteCity)
					})
				})
			}

			if h.Agreement != nil {
				pr.Route("/agreements", func(ar chi.Router) {
					ar.Get("/", h.Agreement.ListAgreements)
					ar.Group(func(wr chi.Router) {
						wr.Use(rbac.Require(auth.PermEditAgreements))
						wr.Post("/", h.Agreement.CreateAgreement)
						wr.Put("/{id}", h.Agreement.UpdateAgreement)
						wr.Delete("/{id}", h.Agreement.DeleteAgreement)
					})
				})
			}

			if h.Addon != nil {
				pr.Route("/addons", func(ar chi.Router) {
					ar.Get("/", h.Addon.ListAddons)
					ar.Group(func(wr chi.Router) {
						wr.Use(rbac.Require(auth.PermEditAddons))
						wr.Post("/", h.Addon.CreateAddon)
						wr.Put("/{id}", h.Addon.UpdateAddon)
						wr.Delete("/{id}", h.Addon.DeleteAddon)
					})
				})
			}

			// Contractor routes carry record level checks in the service,
			// so no RBAC guard sits in front of them.
			if h.Contractor != nil {
				pr.Route("/contractors", func(cr chi.Router) {
					cr.Get("/", h.Contractor.ListContractors)
					cr.Post("/", h.Contractor.CreateContractor)
					cr.Get("/{id}", h.Contractor.GetContractor)
					cr.Put("/{id}", h.Contractor.UpdateContractor)
					cr.Delete("/{id}", h.Contractor.DeleteContractor)
					cr.Patch("/{id}/visibility", h.Contractor.SetVisibility)

					cr.Get("/{id}/files", h.Contractor.ListFiles)
					cr.Post("/{id}/files", h.Contractor.RegisterFile)
					cr.Delete("/{id}/files/{fileID}", h.Contractor.DeleteFile)

					cr.Get("/{id}/suggestions", h.Contractor.ListContractorSuggestions)
					cr.Post("/{id}/suggestions", h.Contractor.CreateSuggestion)

					if h.ServicePoint != nil {
						cr.Get("/{id}/service-points", h.ServicePoint.ListServicePoints)
						cr.Post("/{id}/service-points", h.ServicePoint.CreateServicePoint)
					}
				})

				pr.Route("/suggestions", func(sr chi.Router) {
					sr.Get("/", h.Contractor.ListSuggestions)
					sr.Get("/{id}", h.Contractor.GetSuggestion)
					sr.Post("/{id}/approve", h.Contractor.ApproveSuggestion)
					sr.Post("/{id}/reject", h.Contractor.RejectSuggestion)
				})
			}

			if h.ServicePoint != nil {
				pr.Route("/service-points", func(sr chi.Router) {
					sr.Get("/{id}", h.ServicePoint.GetServicePoint)
					sr.Put("/{id}", h.ServicePoint.UpdateServicePoint)
					sr.Delete("/{id}", h.ServicePoint.DeleteServicePoint)
				})
			}
		})
	})
}
