// Package activityhttp exposes the audit log read surface.
package activityhttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/trackhub/trackhub/internal/activity"
	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// Handler serves audit log queries, exports, stats, and cleanup.
type Handler struct {
	logger    *slog.Logger
	service   *activity.Service
	evaluator *rbac.Evaluator
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *activity.Service, evaluator *rbac.Evaluator) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, evaluator: evaluator}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	filters := parseFilters(r)
	result, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list activity logs", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load activity logs")
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	filters := parseFilters(r)
	format := r.URL.Query().Get("format")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	result, err := h.service.Export(r.Context(), filters, format, limit)
	if err != nil {
		h.logger.Error("export activity logs", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to export activity logs")
		return
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	w.Header().Set("X-Exported-Count", strconv.Itoa(result.Exported))
	if _, err := w.Write(result.Data); err != nil {
		h.logger.Warn("write export", slog.Any("error", err))
	}
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("activity stats", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load activity stats")
		return
	}
	httpx.OK(w, stats)
}

func (h *Handler) cleanup(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r) {
		return
	}
	daysToKeep := 0
	if v := r.URL.Query().Get("daysToKeep"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			httpx.Fail(w, http.StatusBadRequest, "daysToKeep must be a non-negative integer")
			return
		}
		daysToKeep = parsed
	}
	removed, err := h.service.Cleanup(r.Context(), daysToKeep)
	if err != nil {
		h.logger.Error("cleanup activity logs", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to clean up activity logs")
		return
	}
	httpx.OK(w, map[string]any{"deleted": removed})
}

// authorize gates the audit surface on the system:settings permission.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) bool {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Fail(w, http.StatusUnauthorized, "authorization token required")
		return false
	}
	if !h.evaluator.CanPerform(principal, rbac.PermSystemSettings) {
		httpx.Fail(w, http.StatusForbidden, httpx.MsgPermissionDenied)
		return false
	}
	return true
}

func parseFilters(r *http.Request) activity.Filters {
	q := r.URL.Query()
	filters := activity.Filters{
		Action:       q.Get("action"),
		ResourceType: q.Get("resourceType"),
		Severity:     q.Get("severity"),
		Status:       q.Get("status"),
		UserID:       q.Get("userId"),
		Search:       q.Get("search"),
	}
	if v := q.Get("startDate"); v != "" {
		if ts, err := parseDate(v); err == nil {
			filters.StartDate = ts
		}
	}
	if v := q.Get("endDate"); v != "" {
		if ts, err := parseDate(v); err == nil {
			filters.EndDate = ts
		}
	}
	if v := q.Get("page"); v != "" {
		filters.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		filters.Limit, _ = strconv.Atoi(v)
	}
	return filters
}

func parseDate(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", value)
}
