package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trackhub/trackhub/internal/activity"
	activityhttp "github.com/trackhub/trackhub/internal/activity/http"
	"github.com/trackhub/trackhub/internal/app"
	"github.com/trackhub/trackhub/internal/auth"
	"github.com/trackhub/trackhub/internal/bugs"
	"github.com/trackhub/trackhub/internal/dashboard"
	"github.com/trackhub/trackhub/internal/observability"
	"github.com/trackhub/trackhub/internal/platform/cache"
	"github.com/trackhub/trackhub/internal/platform/db"
	"github.com/trackhub/trackhub/internal/projects"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/tasks"
	"github.com/trackhub/trackhub/internal/teams"
	"github.com/trackhub/trackhub/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, token revocation and dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	evaluator := rbac.NewEvaluator()
	rbacMW := rbac.Middleware{Evaluator: evaluator}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, redisClient)
	authMW := auth.NewMiddleware(authService)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, evaluator)

	metrics := observability.NewMetrics()

	auditStore := activity.NewFallbackStore(activity.NewPGStore(pool), cfg.AuditMemoryCap, logger)
	limiter := activity.NewSourceLimiter(cfg.AuditRateCeiling, cfg.AuditRateWindow)
	go limiter.Sweep(ctx)

	recorder := activity.NewRecorder(activity.RecorderConfig{
		Store:      auditStore,
		Limiter:    limiter,
		Names:      usersService,
		Logger:     logger,
		MinLevel:   cfg.AuditMinLevel,
		Production: cfg.IsProduction(),
		Persisted:  metrics.CountAuditEntry,
	})
	activityService := activity.NewService(auditStore)

	teamsService := teams.NewService(teams.NewRepository(pool), evaluator)
	bugsService := bugs.NewService(bugs.NewRepository(pool), evaluator)
	tasksService := tasks.NewService(tasks.NewRepository(pool), evaluator)
	projectsService := projects.NewService(projects.NewRepository(pool), evaluator)
	dashboardService := dashboard.NewService(bugsService, tasksService, projectsService, activityService, redisClient)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      auth.NewHandler(logger, authService, recorder),
		AuthMiddleware:   authMW,
		UsersHandler:     users.NewHandler(logger, usersService, rbacMW),
		TeamsHandler:     teams.NewHandler(logger, teamsService, rbacMW),
		BugsHandler:      bugs.NewHandler(logger, bugsService, rbacMW),
		TasksHandler:     tasks.NewHandler(logger, tasksService, rbacMW),
		ProjectsHandler:  projects.NewHandler(logger, projectsService, rbacMW),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService, rbacMW),
		ActivityHandler:  activityhttp.NewHandler(logger, activityService, evaluator),
		Recorder:         recorder,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
