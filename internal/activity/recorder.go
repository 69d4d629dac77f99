package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/trackhub/trackhub/internal/shared"
)

// maxCapturedBytes bounds how much of a request or response body is captured
// for the audit trail.
const maxCapturedBytes = 64 << 10

// persistTimeout bounds the detached audit write.
const persistTimeout = 5 * time.Second

// NameResolver looks up a display name for an actor id, used to backfill
// manual entries that carry only an id.
type NameResolver interface {
	DisplayName(ctx context.Context, id string) (string, error)
}

// RecorderConfig collects the recorder's injected dependencies. All mutable
// state (limiter, store) is owned by the Recorder instance; there are no
// package globals.
type RecorderConfig struct {
	Store      Store
	Limiter    *SourceLimiter
	Names      NameResolver
	Logger     *slog.Logger
	MinLevel   string
	Production bool

	// Persisted, when set, is called with the entry severity after every
	// successful write. Used to feed metrics counters.
	Persisted func(severity string)
}

// Recorder intercepts responses to classify and persist an audit trail of
// mutating requests. Recording is strictly best-effort: it runs detached
// after the response is finalized and its failures never reach the client.
type Recorder struct {
	store      Store
	limiter    *SourceLimiter
	names      NameResolver
	logger     *slog.Logger
	minLevel   string
	production bool
	persisted  func(severity string)
}

// NewRecorder constructs a Recorder.
func NewRecorder(cfg RecorderConfig) *Recorder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minLevel := cfg.MinLevel
	if minLevel == "" {
		minLevel = LevelInfo
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewSourceLimiter(0, 0)
	}
	return &Recorder{
		store:      cfg.Store,
		limiter:    limiter,
		names:      cfg.Names,
		logger:     logger,
		minLevel:   minLevel,
		production: cfg.Production,
		persisted:  cfg.Persisted,
	}
}

// excludedPaths are never audited: health checks, metrics, and the audit
// log's own read surface.
var excludedPaths = map[string]struct{}{
	"/healthz":                  {},
	"/metrics":                  {},
	"/api/activity-logs":        {},
	"/api/activity-logs/export": {},
	"/api/activity-logs/stats":  {},
	"/api/dashboard/stats":      {},
}

var staticSuffixes = []string{".js", ".css", ".map", ".ico", ".png", ".svg", ".woff2"}

type logGuard struct {
	logged atomic.Bool
}

type guardContextKey struct{}

// snapshot carries everything record needs, copied out of the request before
// the handler goroutine returns the response to the pool.
type snapshot struct {
	method     string
	path       string
	query      any
	body       []byte
	response   []byte
	status     int
	durationMS int64
	userAgent  string
	sourceAddr string
	actorID    string
	actorName  string
	guard      *logGuard
}

// Middleware wraps a handler with audit capture. The audit write is initiated
// only after the response body is finalized and runs as a detached goroutine;
// it never blocks or alters the response.
func (rec *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipRequest(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(io.LimitReader(r.Body, maxCapturedBytes))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(bodyBytes), r.Body))
		}

		// Reuse an existing guard so a doubly-mounted recorder logs once.
		guard, ok := r.Context().Value(guardContextKey{}).(*logGuard)
		if !ok {
			guard = &logGuard{}
			r = r.WithContext(context.WithValue(r.Context(), guardContextKey{}, guard))
		}

		capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(capture, r)

		principal := shared.PrincipalFromContext(r.Context())
		snap := snapshot{
			method:     r.Method,
			path:       r.URL.Path,
			query:      FilterQuery(r.URL.Query()),
			body:       bodyBytes,
			response:   capture.body.Bytes(),
			status:     capture.status,
			durationMS: time.Since(start).Milliseconds(),
			userAgent:  r.UserAgent(),
			sourceAddr: sourceAddress(r),
			guard:      guard,
		}
		if principal != nil {
			snap.actorID = principal.ID
			snap.actorName = principal.Name
		}
		go rec.record(snap)
	})
}

// record classifies and persists one snapshot. Failures are swallowed; in
// non-production they are logged to the local diagnostic channel only.
func (rec *Recorder) record(snap snapshot) {
	defer func() {
		if r := recover(); r != nil {
			rec.diag("audit record panic", slog.Any("panic", r))
		}
	}()

	if !rec.limiter.Allow(snap.sourceAddr) {
		// Silent skip: the dropped event is not queued or retried.
		return
	}
	if !snap.guard.logged.CompareAndSwap(false, true) {
		return
	}

	action, ok := Classify(snap.method, snap.path)
	if !ok {
		return
	}

	handlerErr := snap.status >= http.StatusInternalServerError
	response := decodeJSON(snap.response)
	failed := handlerErr || responseFlaggedFailure(response)

	severity := SeverityLow
	switch {
	case handlerErr:
		severity = SeverityCritical
	case snap.method == http.MethodDelete:
		severity = SeverityHigh
	case snap.method == http.MethodPost || snap.method == http.MethodPut:
		severity = SeverityMedium
	}

	level := LevelInfo
	switch {
	case handlerErr:
		level = LevelError
	case failed || snap.method == http.MethodDelete:
		level = LevelWarn
	}
	if !levelAtLeast(level, rec.minLevel) {
		return
	}

	status := StatusSuccess
	if failed {
		status = StatusFailure
	}

	actorName := snap.actorName
	if actorName == "" {
		actorName = ActorAnonymous
	}

	entry := Entry{
		ID:          uuid.NewString(),
		ActorID:     snap.actorID,
		ActorName:   actorName,
		Action:      action,
		Description: BuildDetailedDescription(snap.method, snap.path, action, response),
		Details: Details{
			Method:     snap.method,
			Path:       snap.path,
			Query:      snap.query,
			Body:       FilterSensitive(decodeJSON(snap.body)),
			Response:   FilterSensitive(response),
			DurationMS: snap.durationMS,
			UserAgent:  snap.userAgent,
			SourceAddr: snap.sourceAddr,
			LogLevel:   level,
		},
		ResourceType: ResourceType(action),
		ResourceID:   PathResourceID(snap.path),
		Severity:     severity,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	rec.persist(entry)
}

// LogActivity is the manual entry point for subsystems that write audit
// entries directly, bypassing classification but sharing the persistence
// path. Missing fields are defaulted and the actor name is backfilled by id.
func (rec *Recorder) LogActivity(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Severity == "" {
		entry.Severity = SeverityLow
	}
	if entry.Status == "" {
		entry.Status = StatusSuccess
	}
	if entry.Details.LogLevel == "" {
		entry.Details.LogLevel = LevelInfo
	}
	if entry.ActorName == "" {
		entry.ActorName = ActorAnonymous
		if entry.ActorID != "" {
			entry.ActorName = ActorUnknown
			if rec.names != nil {
				if name, err := rec.names.DisplayName(ctx, entry.ActorID); err == nil && name != "" {
					entry.ActorName = name
				}
			}
		}
	}
	if entry.Description == "" {
		entry.Description = strings.ToLower(strings.ReplaceAll(entry.Action, "_", " "))
	}
	go rec.persist(entry)
}

// MarkLogged suppresses the middleware's automatic entry for the current
// request. Handlers that write a richer entry through LogActivity call this
// so the request is not recorded twice.
func MarkLogged(ctx context.Context) {
	if guard, ok := ctx.Value(guardContextKey{}).(*logGuard); ok {
		guard.logged.Store(true)
	}
}

func (rec *Recorder) persist(entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			rec.diag("audit persist panic", slog.Any("panic", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := rec.store.Insert(ctx, entry); err != nil {
		rec.diag("audit persist failed", slog.Any("error", err))
		return
	}
	if rec.persisted != nil {
		rec.persisted(entry.Severity)
	}
}

func (rec *Recorder) diag(msg string, args ...any) {
	if rec.production {
		return
	}
	rec.logger.Debug(msg, args...)
}

func skipRequest(method, path string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	if _, ok := excludedPaths[path]; ok {
		return true
	}
	if strings.HasPrefix(path, "/static/") {
		return true
	}
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func sourceAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func decodeJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	return decoded
}

func responseFlaggedFailure(response any) bool {
	body, ok := response.(map[string]any)
	if !ok {
		return false
	}
	success, ok := body["success"].(bool)
	return ok && !success
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(data []byte) (int, error) {
	if w.body.Len() < maxCapturedBytes {
		remaining := maxCapturedBytes - w.body.Len()
		if len(data) <= remaining {
			w.body.Write(data)
		} else {
			w.body.Write(data[:remaining])
		}
	}
	return w.ResponseWriter.Write(data)
}
