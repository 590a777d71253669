package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// Handler serves the home page.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Responder
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, rbac: rbac}
}

// MountRoutes registers home routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.With(h.rbac.RequireAny(rbac.ViewAnalytics)).Post("/dashboard/refresh", h.refresh)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	overview, err := h.service.Overview(r.Context(), principal, auth.TokenFromContext(r.Context()))
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("overview failed", slog.Any("error", err))
	}
	h.pages.Render(w, r, "pages/dashboard.html", "Dashboard", overview, http.StatusOK)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.logger.Warn("refresh stats cache", slog.Any("error", err))
		h.pages.Redirect(w, r, "/", shared.FlashError, "Could not refresh statistics")
		return
	}
	h.pages.Redirect(w, r, "/", shared.FlashSuccess, "Statistics refreshed")
}
