package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trackhub/trackhub/internal/shared"
)

type staticResolver struct {
	principal *shared.Principal
	err       error
}

func (r staticResolver) ResolvePrincipal(context.Context, string) (*shared.Principal, error) {
	return r.principal, r.err
}

func principalEcho() (http.Handler, *[]*shared.Principal) {
	var seen []*shared.Principal
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, shared.PrincipalFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	return handler, &seen
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw := NewMiddleware(staticResolver{})
	handler, _ := principalEcho()

	w := httptest.NewRecorder()
	mw.Authenticate(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), ErrMissingToken.Error())
}

func TestAuthenticateExpiredTokenMessage(t *testing.T) {
	mw := NewMiddleware(staticResolver{err: ErrExpiredToken})
	handler, _ := principalEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	mw.Authenticate(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), ErrExpiredToken.Error())
}

func TestAuthenticateHidesResolverInternals(t *testing.T) {
	resolverErr := fmt.Errorf("auth: find user: %w", errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	mw := NewMiddleware(staticResolver{err: resolverErr})
	handler, _ := principalEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	mw.Authenticate(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), ErrInvalidToken.Error())
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAuthenticateAttachesPrincipal(t *testing.T) {
	principal := &shared.Principal{ID: "u1", Name: "Alice", Role: "developer", Status: shared.StatusActive}
	mw := NewMiddleware(staticResolver{principal: principal})
	handler, seen := principalEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	mw.Authenticate(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, principal, (*seen)[0])
}

func TestAuthenticateOptionalProceedsAnonymously(t *testing.T) {
	mw := NewMiddleware(staticResolver{err: ErrInvalidToken})
	handler, seen := principalEcho()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	mw.AuthenticateOptional(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, (*seen)[0])
}

func TestRequireRole(t *testing.T) {
	handler, _ := principalEcho()
	guarded := RequireRole("admin", "manager")(handler)

	// No principal at all.
	w := httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong role.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{Role: "viewer"}))
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "权限不足")

	// Allowed role.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), &shared.Principal{Role: "manager"}))
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
