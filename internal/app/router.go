package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/trackhub/trackhub/internal/activity"
	activityhttp "github.com/trackhub/trackhub/internal/activity/http"
	"github.com/trackhub/trackhub/internal/auth"
	"github.com/trackhub/trackhub/internal/bugs"
	"github.com/trackhub/trackhub/internal/dashboard"
	"github.com/trackhub/trackhub/internal/observability"
	"github.com/trackhub/trackhub/internal/projects"
	"github.com/trackhub/trackhub/internal/tasks"
	"github.com/trackhub/trackhub/internal/teams"
	"github.com/trackhub/trackhub/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   *auth.Middleware
	UsersHandler     *users.Handler
	TeamsHandler     *teams.Handler
	BugsHandler      *bugs.Handler
	TasksHandler     *tasks.Handler
	ProjectsHandler  *projects.Handler
	DashboardHandler *dashboard.Handler
	ActivityHandler  *activityhttp.Handler
	Recorder         *activity.Recorder
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router. The audit recorder is mounted inside
// the API groups so the rate limiter and classifier only ever see API
// traffic; authentication runs first so entries carry the principal.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	audit := params.Recorder.Middleware

	r.Route("/api/auth", func(r chi.Router) {
		r.Use(audit)
		auth.MountRoutes(r, params.AuthHandler, params.AuthMiddleware)
	})

	protected := func(pattern string, mount func(chi.Router)) {
		r.Route(pattern, func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)
			r.Use(audit)
			mount(r)
		})
	}

	protected("/api/users", params.UsersHandler.MountRoutes)
	protected("/api/teams", params.TeamsHandler.MountRoutes)
	protected("/api/bugs", params.BugsHandler.MountRoutes)
	protected("/api/tasks", params.TasksHandler.MountRoutes)
	protected("/api/projects", params.ProjectsHandler.MountRoutes)
	protected("/api/dashboard", params.DashboardHandler.MountRoutes)
	protected("/api/activity-logs", params.ActivityHandler.MountRoutes)

	return r
}
