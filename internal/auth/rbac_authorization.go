package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/internal/transport"
)

// RBACAuthorization guards routes that need a plain permission without any
// record level check.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// Check wraps next so it only runs when the user holds one of permissions.
func (ra *RBACAuthorization) Check(next http.HandlerFunc, permissions ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			ra.Logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
			ra.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		if !HasPermission(user.Permissions, permissions...) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"required_permissions", permissions,
				"user_permissions", user.Permissions)
			ra.HandleServiceError(w, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Require is the chi middleware form of Check.
func (ra *RBACAuthorization) Require(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permissions...)
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(PermAdmin)
}
