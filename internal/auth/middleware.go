package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/shared"
)

// PrincipalResolver resolves a verified bearer token to a principal.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, rawToken string) (*shared.Principal, error)
}

// Middleware attaches principals to requests.
type Middleware struct {
	resolver PrincipalResolver
}

// NewMiddleware constructs auth middleware around a resolver.
func NewMiddleware(resolver PrincipalResolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// Authenticate rejects requests without a valid bearer token for an active
// account. The rejection reason is surfaced in the 401 message.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}
		principal, err := m.resolver.ResolvePrincipal(r.Context(), raw)
		if err != nil {
			httpx.Fail(w, http.StatusUnauthorized, rejectionMessage(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// AuthenticateOptional resolves the principal when a valid token is present
// but never rejects; failures proceed anonymously.
func (m *Middleware) AuthenticateOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			if principal, err := m.resolver.ResolvePrincipal(r.Context(), raw); err == nil {
				r = r.WithContext(shared.ContextWithPrincipal(r.Context(), principal))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole composes with Authenticate: no principal yields 401, a principal
// whose role is outside the allowed list yields 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			if _, ok := allowedSet[principal.Role]; !ok {
				httpx.Fail(w, http.StatusForbidden, httpx.MsgPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectionMessage surfaces only the known rejection sentinels; anything
// else (a datastore failure, for instance) collapses to the generic
// invalid-token message so internals never leak into a 401 body.
func rejectionMessage(err error) string {
	sentinels := []error{
		ErrExpiredToken,
		ErrInvalidToken,
		ErrPrincipalNotFound,
		ErrAccountDisabled,
		ErrMissingToken,
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrInvalidToken.Error()
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
