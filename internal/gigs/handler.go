package gigs

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

// Handler serves the gigs page.
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

// MountRoutes registers gig routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.ViewGigs)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.ManageGigs, rbac.ModerateContent)).Post("/{id}/moderate", h.moderate)
}

type filter struct {
	Query  string
	Status string
}

type listPage struct {
	Gigs       []backend.Gig
	Filter     filter
	Statuses   []string
	Pagination shared.Pagination
	Error      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := filter{Query: strings.TrimSpace(r.URL.Query().Get("q")), Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	page := shared.PageFromRequest(r)
	data := listPage{Filter: f, Statuses: Statuses}
	result, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()), f.Query, f.Status, page)
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list gigs failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/gigs.html", "Gigs", data, http.StatusBadGateway)
		return
	}
	data.Gigs = result.Items
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/gigs.html", "Gigs", data, http.StatusOK)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	update := backend.GigUpdate{
		Status: strings.TrimSpace(r.PostFormValue("status")),
		Note:   strings.TrimSpace(r.PostFormValue("note")),
	}
	switch r.PostFormValue("flag") {
	case "on":
		flagged := true
		update.Flagged = &flagged
	case "off":
		flagged := false
		update.Flagged = &flagged
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Moderate(r.Context(), actor, auth.TokenFromContext(r.Context()), id, update); err != nil {
		h.pages.Fail(w, r, "/gigs", err)
		return
	}
	h.pages.Redirect(w, r, "/gigs", shared.FlashSuccess, "Gig updated")
}
