package bugs

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

// Handler manages bug endpoints.
type Handler struct {
	logger   *slog.Logger
	validate *validator.Validate
	service  *Service
	rbac     rbac.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		service:  service,
		rbac:     rbacMW,
	}
}

// MountRoutes registers bug routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Require(rbac.PermBugRead)).Get("/", h.list)
	r.With(h.rbac.Require(rbac.PermBugRead)).Get("/{id}", h.get)
	r.With(h.rbac.Require(rbac.PermBugCreate)).Post("/", h.create)
	r.With(h.rbac.Require(rbac.PermBugUpdate)).Put("/{id}", h.update)
	r.With(h.rbac.Require(rbac.PermBugUpdate)).Patch("/{id}/status", h.updateStatus)
	r.With(h.rbac.Require(rbac.PermBugUpdate)).Patch("/{id}/assign", h.assign)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		ProjectID:  q.Get("projectId"),
		AssigneeID: q.Get("assigneeId"),
		CreatorID:  q.Get("creatorId"),
		Search:     q.Get("search"),
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))

	result, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list bugs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	bug, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bug)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	bug, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		h.logger.Error("create bug", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, bug)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	bug, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bug)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	bug, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), input.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bug)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AssigneeID string `json:"assigneeId"`
	}
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	bug, err := h.service.Assign(r.Context(), chi.URLParam(r, "id"), input.AssigneeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, bug)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Fail(w, http.StatusUnauthorized, "authorization token required")
		return
	}
	if err := h.service.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, nil)
}
