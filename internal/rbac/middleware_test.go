package rbac

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhub/trackhub/internal/activity"
	"github.com/trackhub/trackhub/internal/shared"
)

func guardedChain(store activity.Store, guard func(http.Handler) http.Handler) http.Handler {
	rec := activity.NewRecorder(activity.RecorderConfig{Store: store})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	return rec.Middleware(guard(inner))
}

func TestRequireDeniedRequestIsNotAudited(t *testing.T) {
	store := activity.NewMemoryStore(100)
	mw := Middleware{Evaluator: NewEvaluator()}
	handler := guardedChain(store, mw.Require(PermBugCreate))

	principal := &shared.Principal{
		ID:          "viewer-1",
		Role:        RoleViewer,
		Permissions: PermissionsForRole(RoleViewer),
		Status:      shared.StatusActive,
	}
	req := httptest.NewRequest(http.MethodPost, "/api/bugs", strings.NewReader(`{"title":"x"}`))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "权限不足")

	// The rejection happened before any handler ran; no entry is written.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestRequireAllowedRequestIsAudited(t *testing.T) {
	store := activity.NewMemoryStore(100)
	mw := Middleware{Evaluator: NewEvaluator()}
	handler := guardedChain(store, mw.Require(PermBugCreate))

	principal := &shared.Principal{
		ID:          "dev-1",
		Name:        "Dev",
		Role:        RoleDeveloper,
		Permissions: PermissionsForRole(RoleDeveloper),
		Status:      shared.StatusActive,
	}
	req := httptest.NewRequest(http.MethodPost, "/api/bugs", strings.NewReader(`{"title":"x"}`))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Eventually(t, func() bool { return store.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRequireMissingPrincipal(t *testing.T) {
	mw := Middleware{Evaluator: NewEvaluator()}
	handler := mw.Require(PermBugCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bugs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
