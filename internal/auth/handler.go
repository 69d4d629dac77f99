package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/trackhub/trackhub/internal/activity"
	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/shared"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type accountView struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Status      string   `json:"status"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  accountView `json:"user"`
}

// Handler serves the session endpoints.
type Handler struct {
	logger   *slog.Logger
	validate *validator.Validate
	service  *Service
	recorder *activity.Recorder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, recorder *activity.Recorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		service:  service,
		recorder: recorder,
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	token, err := h.service.IssueToken(user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	// The automatic entry would be anonymous; log with the authenticated
	// actor instead.
	h.recorder.LogActivity(r.Context(), activity.Entry{
		ActorID:      user.ID,
		ActorName:    user.Name,
		Action:       activity.ActionLogin,
		Description:  "logged in: " + user.Name,
		ResourceType: "system",
	})
	activity.MarkLogged(r.Context())

	httpx.OK(w, loginResponse{Token: token, User: viewOf(user)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := bearerToken(r); ok {
		if err := h.service.RevokeToken(r.Context(), raw); err != nil {
			h.logger.Warn("revoke token", slog.Any("error", err))
		}
	}
	entry := activity.Entry{Action: activity.ActionLogout, ResourceType: "system"}
	if principal := shared.PrincipalFromContext(r.Context()); principal != nil {
		entry.ActorID = principal.ID
		entry.ActorName = principal.Name
		entry.Description = "logged out: " + principal.Name
	}
	h.recorder.LogActivity(r.Context(), entry)
	activity.MarkLogged(r.Context())

	httpx.OK(w, nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Fail(w, http.StatusUnauthorized, ErrMissingToken.Error())
		return
	}
	httpx.OK(w, accountView{
		ID:          principal.ID,
		Name:        principal.Name,
		Role:        principal.Role,
		Permissions: principal.Permissions,
		Status:      principal.Status,
	})
}

func viewOf(user *User) accountView {
	return accountView{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: user.Permissions,
		Status:      user.Status,
	}
}
