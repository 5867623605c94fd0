package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventdesk/eventdesk/internal/account"
	"github.com/eventdesk/eventdesk/internal/app"
	"github.com/eventdesk/eventdesk/internal/authz"
	"github.com/eventdesk/eventdesk/internal/backend"
	"github.com/eventdesk/eventdesk/internal/dashboard"
	"github.com/eventdesk/eventdesk/internal/events"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/platform/cache"
	"github.com/eventdesk/eventdesk/internal/shared"
	"github.com/eventdesk/eventdesk/internal/users"
	"github.com/eventdesk/eventdesk/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// Sessions live in Redis; without it nothing works.
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "eventdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	apiClient := backend.NewClient(cfg.BackendAPIURL, cfg.BackendTimeout)
	if err := apiClient.Ping(ctx); err != nil {
		logger.Warn("backend ping", slog.Any("error", err))
	}

	policy := authz.DefaultPolicy()
	authzMiddleware := authz.Middleware{
		Policy: policy,
		Logger: logger,
		Forbidden: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			data := view.BuildData(r, csrfManager, policy, "Not allowed", nil)
			if err := templates.Render(w, "pages/forbidden.html", data); err != nil {
				logger.Error("render forbidden", slog.Any("error", err))
			}
		}),
	}

	accountHandler := account.NewHandler(logger, apiClient, policy, templates, sessionManager, csrfManager, authzMiddleware)
	sessionRestore := account.Middleware{API: apiClient, Logger: logger}
	dashboardHandler := dashboard.NewHandler(logger, apiClient, policy, templates, csrfManager, authzMiddleware)
	eventsHandler := events.NewHandler(logger, apiClient, policy, templates, csrfManager, authzMiddleware)
	usersHandler := users.NewHandler(logger, apiClient, policy, templates, csrfManager, authzMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Policy:           policy,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AccountHandler:   accountHandler,
		SessionRestore:   sessionRestore,
		DashboardHandler: dashboardHandler,
		EventsHandler:    eventsHandler,
		UsersHandler:     usersHandler,
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
