package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/intranet-portal/internal"
	"github.com/frahmantamala/intranet-portal/internal/transport"
)

type RBACAuthorization struct {
	policy *Policy
	*transport.BaseHandler
}

func NewRBACAuthorization(policy *Policy, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		policy:      policy,
		BaseHandler: transport.NewBaseHandler(logger),
	}
}

func (ra *RBACAuthorization) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
				ra.WriteAppError(w, internal.ErrUnauthorized)
				return
			}

			if user.Role != role && !ra.policy.IsAdmin(user) {
				ra.Logger.WarnContext(r.Context(), "access denied: role required",
					"user_id", user.ID,
					"required_role", role,
					"user_role", user.Role)
				ra.WriteAppError(w, internal.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRole(RoleAdmin)
}
