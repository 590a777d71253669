package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/source-impact/admin-dashboard/internal/audit/http"
	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/dashboard"
	"github.com/source-impact/admin-dashboard/internal/deals"
	"github.com/source-impact/admin-dashboard/internal/disputes"
	"github.com/source-impact/admin-dashboard/internal/financials"
	"github.com/source-impact/admin-dashboard/internal/gigs"
	"github.com/source-impact/admin-dashboard/internal/notifications"
	"github.com/source-impact/admin-dashboard/internal/observability"
	"github.com/source-impact/admin-dashboard/internal/profile"
	"github.com/source-impact/admin-dashboard/internal/rewards"
	"github.com/source-impact/admin-dashboard/internal/security"
	"github.com/source-impact/admin-dashboard/internal/settings"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/users"
	"github.com/source-impact/admin-dashboard/jobs"
	"github.com/source-impact/admin-dashboard/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Auth           *auth.Middleware
	Metrics        *observability.Metrics

	AuthHandler          *auth.Handler
	DashboardHandler     *dashboard.Handler
	UsersHandler         *users.Handler
	DealsHandler         *deals.Handler
	GigsHandler          *gigs.Handler
	FinancialsHandler    *financials.Handler
	DisputesHandler      *disputes.Handler
	RewardsHandler       *rewards.Handler
	NotificationsHandler *notifications.Handler
	SettingsHandler      *settings.Handler
	ProfileHandler       *profile.Handler
	SecurityHandler      *security.Handler
	JobHandler           *jobs.Handler
	AuditHandler         *audithttp.Handler
}

// NewRouter constructs the chi.Router with the dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Assets skip the session stack entirely.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		mc := MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}
		if params.Auth != nil {
			mc.Authenticate = params.Auth.Authenticate
		}
		for _, mw := range MiddlewareStack(mc) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.SecurityHandler != nil {
			r.Get("/session", params.SecurityHandler.Session)
		}

		r.Group(func(r chi.Router) {
			if params.Auth != nil {
				r.Use(params.Auth.RequireLogin)
			}
			if params.DashboardHandler != nil {
				params.DashboardHandler.MountRoutes(r)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountRoutes)
			}
			if params.DealsHandler != nil {
				r.Route("/deals", params.DealsHandler.MountRoutes)
			}
			if params.GigsHandler != nil {
				r.Route("/gigs", params.GigsHandler.MountRoutes)
			}
			if params.FinancialsHandler != nil {
				r.Route("/financials", params.FinancialsHandler.MountRoutes)
			}
			if params.DisputesHandler != nil {
				r.Route("/disputes", params.DisputesHandler.MountRoutes)
			}
			if params.RewardsHandler != nil {
				r.Route("/rewards", params.RewardsHandler.MountRoutes)
			}
			if params.NotificationsHandler != nil {
				r.Route("/notifications", params.NotificationsHandler.MountRoutes)
			}
			if params.SettingsHandler != nil {
				r.Route("/settings", params.SettingsHandler.MountRoutes)
			}
			if params.ProfileHandler != nil {
				r.Route("/profile", params.ProfileHandler.MountRoutes)
			}
			if params.SecurityHandler != nil {
				r.Route("/security", params.SecurityHandler.MountRoutes)
			}
			if params.AuditHandler != nil {
				r.Route("/audit", params.AuditHandler.MountRoutes)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
