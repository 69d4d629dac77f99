package activity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhub/trackhub/internal/shared"
)

const waitFor = 2 * time.Second
const tick = 10 * time.Millisecond

func testPrincipal() *shared.Principal {
	return &shared.Principal{ID: "5f8a1b2c3d4e5f6a7b8c9d0f", Name: "Alice", Role: "developer", Status: shared.StatusActive}
}

func newTestRecorder(store Store) *Recorder {
	return NewRecorder(RecorderConfig{Store: store})
}

func serveAudited(rec *Recorder, method, path, body string, handler http.HandlerFunc, principal *shared.Principal) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.1.2.3:54321"
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
	}
	w := httptest.NewRecorder()
	rec.Middleware(handler).ServeHTTP(w, req)
	return w
}

func okHandler(status int, payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func firstEntry(t *testing.T, store *MemoryStore) Entry {
	t.Helper()
	var entry Entry
	require.Eventually(t, func() bool {
		logs, _, err := store.List(context.Background(), Filters{})
		if err != nil || len(logs) == 0 {
			return false
		}
		entry = logs[0]
		return true
	}, waitFor, tick)
	return entry
}

func TestRecorderPersistsClassifiedMutation(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	w := serveAudited(rec, http.MethodPost, "/api/bugs", `{"title":"login broken","password":"hunter2"}`,
		okHandler(http.StatusCreated, `{"success":true,"data":{"title":"login broken"}}`), testPrincipal())
	assert.Equal(t, http.StatusCreated, w.Code)

	entry := firstEntry(t, store)
	assert.Equal(t, ActionCreateBug, entry.Action)
	assert.Equal(t, "created bug: login broken", entry.Description)
	assert.Equal(t, SeverityMedium, entry.Severity)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.Equal(t, "bug", entry.ResourceType)
	assert.Equal(t, "Alice", entry.ActorName)
	assert.Equal(t, "10.1.2.3", entry.Details.SourceAddr)
	assert.Equal(t, LevelInfo, entry.Details.LogLevel)

	body := entry.Details.Body.(map[string]any)
	assert.Equal(t, RedactedPlaceholder, body["password"])
	assert.Equal(t, "login broken", body["title"])
}

func TestRecorderSkipsReads(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	serveAudited(rec, http.MethodGet, "/api/bugs", "", okHandler(http.StatusOK, `{"success":true}`), testPrincipal())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestRecorderSkipsExcludedPaths(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	serveAudited(rec, http.MethodDelete, "/api/activity-logs/export", "", okHandler(http.StatusOK, `{}`), testPrincipal())
	serveAudited(rec, http.MethodPost, "/static/app.js", "", okHandler(http.StatusOK, `{}`), testPrincipal())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestRecorderSkipsUnclassifiedRequests(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	// Short numeric id fails the long-hex normalization and classification.
	serveAudited(rec, http.MethodDelete, "/api/bugs/42", "", okHandler(http.StatusOK, `{"success":true}`), testPrincipal())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestRecorderDeleteSeverityAndFailureStatus(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	serveAudited(rec, http.MethodDelete, "/api/projects/5f8a1b2c3d4e5f6a7b8c9d0e", "",
		okHandler(http.StatusOK, `{"success":false,"message":"conflict"}`), testPrincipal())

	entry := firstEntry(t, store)
	assert.Equal(t, ActionDeleteProject, entry.Action)
	assert.Equal(t, SeverityHigh, entry.Severity)
	assert.Equal(t, StatusFailure, entry.Status)
	assert.Equal(t, LevelWarn, entry.Details.LogLevel)
	assert.Equal(t, "5f8a1b2c3d4e5f6a7b8c9d0e", entry.ResourceID)
}

func TestRecorderHandlerErrorIsCritical(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	serveAudited(rec, http.MethodPost, "/api/bugs", `{}`,
		okHandler(http.StatusInternalServerError, `{"success":false}`), testPrincipal())

	entry := firstEntry(t, store)
	assert.Equal(t, SeverityCritical, entry.Severity)
	assert.Equal(t, StatusFailure, entry.Status)
	assert.Equal(t, LevelError, entry.Details.LogLevel)
}

func TestRecorderAnonymousActor(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	serveAudited(rec, http.MethodPost, "/api/bugs", `{}`, okHandler(http.StatusCreated, `{"success":true}`), nil)

	entry := firstEntry(t, store)
	assert.Equal(t, ActorAnonymous, entry.ActorName)
	assert.Empty(t, entry.ActorID)
}

func TestRecorderMinLevelFilter(t *testing.T) {
	store := NewMemoryStore(100)
	rec := NewRecorder(RecorderConfig{Store: store, MinLevel: LevelError})

	serveAudited(rec, http.MethodPost, "/api/bugs", `{}`, okHandler(http.StatusCreated, `{"success":true}`), testPrincipal())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, store.Len(), "INFO entry below ERROR minimum must be dropped")
}

func TestRecorderRateLimitDropsOverCeiling(t *testing.T) {
	store := NewMemoryStore(100)
	limiter := NewSourceLimiter(2, time.Minute)
	rec := NewRecorder(RecorderConfig{Store: store, Limiter: limiter})

	for i := 0; i < 5; i++ {
		serveAudited(rec, http.MethodPost, "/api/bugs", `{}`, okHandler(http.StatusCreated, `{"success":true}`), testPrincipal())
	}

	require.Eventually(t, func() bool { return store.Len() == 2 }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, store.Len(), "events over the ceiling are dropped, not queued")
}

func TestRecorderStoreFailureIsInvisible(t *testing.T) {
	rec := NewRecorder(RecorderConfig{Store: failingStore{}})

	w := serveAudited(rec, http.MethodPost, "/api/bugs", `{}`, okHandler(http.StatusCreated, `{"success":true}`), testPrincipal())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"success":true}`, w.Body.String())
}

type failingStore struct{}

func (failingStore) Insert(context.Context, Entry) error { return assert.AnError }
func (failingStore) List(context.Context, Filters) ([]Entry, int, error) {
	return nil, 0, assert.AnError
}
func (failingStore) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, assert.AnError
}
func (failingStore) Stats(context.Context) (Stats, error) { return Stats{}, assert.AnError }

type stubNames struct{ name string }

func (s stubNames) DisplayName(context.Context, string) (string, error) { return s.name, nil }

func TestLogActivityBackfillsActorName(t *testing.T) {
	store := NewMemoryStore(100)
	rec := NewRecorder(RecorderConfig{Store: store, Names: stubNames{name: "Bob"}})

	rec.LogActivity(context.Background(), Entry{
		ActorID:      "5f8a1b2c3d4e5f6a7b8c9d10",
		Action:       ActionLogin,
		ResourceType: "system",
	})

	entry := firstEntry(t, store)
	assert.Equal(t, "Bob", entry.ActorName)
	assert.Equal(t, ActionLogin, entry.Action)
	assert.Equal(t, SeverityLow, entry.Severity)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestLogActivityAnonymousWithoutActor(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	rec.LogActivity(context.Background(), Entry{Action: ActionLogout})

	entry := firstEntry(t, store)
	assert.Equal(t, ActorAnonymous, entry.ActorName)
}

func TestLogActivityUnknownWhenLookupUnavailable(t *testing.T) {
	store := NewMemoryStore(100)
	rec := newTestRecorder(store)

	rec.LogActivity(context.Background(), Entry{ActorID: "5f8a1b2c3d4e5f6a7b8c9d10", Action: ActionLogin})

	entry := firstEntry(t, store)
	assert.Equal(t, ActorUnknown, entry.ActorName)
}
