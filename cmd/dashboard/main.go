package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/source-impact/admin-dashboard/internal/app"
	"github.com/source-impact/admin-dashboard/internal/audit"
	audithttp "github.com/source-impact/admin-dashboard/internal/audit/http"
	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/dashboard"
	"github.com/source-impact/admin-dashboard/internal/deals"
	"github.com/source-impact/admin-dashboard/internal/disputes"
	"github.com/source-impact/admin-dashboard/internal/financials"
	"github.com/source-impact/admin-dashboard/internal/gigs"
	"github.com/source-impact/admin-dashboard/internal/notifications"
	"github.com/source-impact/admin-dashboard/internal/observability"
	"github.com/source-impact/admin-dashboard/internal/platform/cache"
	"github.com/source-impact/admin-dashboard/internal/platform/db"
	"github.com/source-impact/admin-dashboard/internal/profile"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/rewards"
	"github.com/source-impact/admin-dashboard/internal/security"
	"github.com/source-impact/admin-dashboard/internal/settings"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/users"
	"github.com/source-impact/admin-dashboard/internal/view"
	"github.com/source-impact/admin-dashboard/jobs"
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

	redisClient, err := cache.New(ctx, cfg.Redis())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var pool *pgxpool.Pool
	if cfg.PGDSN != "" {
		pool, err = db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		logger.Info("PG_DSN not set, audit entries go to the log only")
	}
	auditLogger := shared.NewAuditLogger(pool, logger)

	metrics := observability.NewMetrics()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout,
		backend.WithLogger(logger),
		backend.WithRouteMemo(backend.NewRedisMemo(redisClient, cfg.RouteMemoTTL)),
		backend.WithObserver(metrics),
	)
	resolver := rbac.NewResolver(cfg.SuperAdminEmail, cfg.AdminEmail)

	sessionManager := shared.NewSessionManager(redisClient, "impact_admin_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	pages := view.NewResponder(logger, templates, csrfManager, sessionManager)
	rbacMiddleware := rbac.Middleware{Logger: logger, Denied: http.HandlerFunc(pages.Forbidden)}

	authService := auth.NewService(client, resolver)
	authMiddleware := auth.NewMiddleware(logger, authService, sessionManager, cfg.SessionRevalidate)
	authHandler := auth.NewHandler(logger, authService, pages, sessionManager, csrfManager, auditLogger)

	redisOpts := cfg.AsynqRedis()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	statsCache := cache.NewJSONCache(redisClient, cfg.StatsCacheTTL)

	var auditHandler *audithttp.Handler
	if pool != nil {
		auditHandler = audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(pool)), pages, rbacMiddleware)
		pages.EnableAuditLog()
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Auth:           authMiddleware,
		Metrics:        metrics,

		AuthHandler:          authHandler,
		DashboardHandler:     dashboard.NewHandler(logger, dashboard.NewService(client, statsCache, metrics, logger), pages, rbacMiddleware),
		UsersHandler:         users.NewHandler(logger, users.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		DealsHandler:         deals.NewHandler(logger, deals.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		GigsHandler:          gigs.NewHandler(logger, gigs.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		FinancialsHandler:    financials.NewHandler(logger, financials.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		DisputesHandler:      disputes.NewHandler(logger, disputes.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		RewardsHandler:       rewards.NewHandler(logger, rewards.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		NotificationsHandler: notifications.NewHandler(logger, notifications.NewService(client, jobClient, auditLogger, logger), pages, rbacMiddleware),
		SettingsHandler:      settings.NewHandler(logger, settings.NewService(client, auditLogger, logger), pages, rbacMiddleware),
		ProfileHandler:       profile.NewHandler(logger, profile.NewService(client, authService, auditLogger, logger), pages),
		SecurityHandler:      security.NewHandler(logger, pages),
		JobHandler:           jobs.NewHandler(inspector, logger),
		AuditHandler:         auditHandler,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
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
