package disputes

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

// Handler serves the disputes page.
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

// MountRoutes registers dispute routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(rbac.ManageSupport))
	r.Get("/", h.list)
	r.Post("/{id}/resolve", h.resolve)
}

type filter struct {
	Query  string
	Status string
}

type listPage struct {
	Disputes   []backend.Dispute
	Outcomes   []string
	Filter     filter
	Statuses   []string
	Pagination shared.Pagination
	Error      string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := filter{Status: strings.TrimSpace(r.URL.Query().Get("status"))}
	page := shared.PageFromRequest(r)
	data := listPage{Filter: f, Statuses: Statuses, Outcomes: Outcomes}
	result, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()), f.Status, page)
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list disputes failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/disputes.html", "Disputes", data, http.StatusBadGateway)
		return
	}
	data.Disputes = result.Items
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/disputes.html", "Disputes", data, http.StatusOK)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	decision := backend.DisputeResolution{
		Outcome: strings.TrimSpace(r.PostFormValue("outcome")),
		Note:    r.PostFormValue("note"),
	}
	if err := h.service.Resolve(r.Context(), actor, auth.TokenFromContext(r.Context()), chi.URLParam(r, "id"), decision); err != nil {
		h.pages.Fail(w, r, "/disputes", err)
		return
	}
	h.pages.Redirect(w, r, "/disputes", shared.FlashSuccess, "Dispute resolved")
}
