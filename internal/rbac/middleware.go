package rbac

import (
	"net/http"

	"github.com/trackhub/trackhub/internal/activity"
	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/shared"
)

// Middleware wires authorization guards for HTTP handlers. Rejected requests
// are marked already-logged so the audit recorder skips them: a request the
// guard turned away never reached a handler that could produce a loggable
// success or failure.
type Middleware struct {
	Evaluator *Evaluator
}

// Require ensures the current principal holds the given permission.
func (m Middleware) Require(perm string) func(http.Handler) http.Handler {
	return m.RequireAny(perm)
}

// RequireAny ensures the current principal holds at least one of the given
// permissions. No principal yields 401; an inactive principal or a
// permission miss yields 403.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				activity.MarkLogged(r.Context())
				httpx.Fail(w, http.StatusUnauthorized, "authorization token required")
				return
			}
			for _, perm := range perms {
				if m.Evaluator.CanPerform(principal, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			activity.MarkLogged(r.Context())
			httpx.Fail(w, http.StatusForbidden, httpx.MsgPermissionDenied)
		})
	}
}
