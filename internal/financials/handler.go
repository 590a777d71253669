package financials

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

var statuses = []string{"held", "pending", "released", "refunded"}

// Handler serves the financials page.
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

// MountRoutes registers financial routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.ViewDeals)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.ForceReleaseEscrow)).Post("/escrow/{id}/release", h.release)
}

type filter struct {
	Query  string
	Status string
}

type listPage struct {
	Jobs       []backend.EscrowJob
	Summary    Summary
	Filter     filter
	Statuses   []string
	Pagination shared.Pagination
	Error      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	page := shared.PageFromRequest(r)
	data := listPage{Filter: f, Statuses: statuses}
	result, summary, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()), f.Status, page)
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list escrow failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/financials.html", "Financials", data, http.StatusBadGateway)
		return
	}
	data.Jobs = result.Items
	data.Summary = summary
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/financials.html", "Financials", data, http.StatusOK)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	reason := strings.TrimSpace(r.PostFormValue("reason"))
	if err := h.service.Release(r.Context(), actor, auth.TokenFromContext(r.Context()), chi.URLParam(r, "id"), reason); err != nil {
		h.pages.Fail(w, r, "/financials", err)
		return
	}
	h.pages.Redirect(w, r, "/financials", shared.FlashSuccess, "Escrow released")
}
