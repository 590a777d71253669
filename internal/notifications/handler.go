package notifications

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

// Handler serves the notifications page.
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

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(rbac.ManageSupport))
	r.Get("/", h.list)
	r.Post("/", h.send)
}

type listPage struct {
	Notifications []backend.Notification
	Audiences     []string
	Pagination    shared.Pagination
	Filter        struct{ Query, Status string }
	Error         string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.PageFromRequest(r)
	data := listPage{Audiences: Audiences}
	result, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()), page)
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list notifications failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/notifications.html", "Notifications", data, http.StatusBadGateway)
		return
	}
	data.Notifications = result.Items
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/notifications.html", "Notifications", data, http.StatusOK)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	actor, _ := rbac.PrincipalFromContext(r.Context())
	outcome, err := h.service.Send(r.Context(), actor, auth.TokenFromContext(r.Context()), backend.OutgoingNotification{
		Title:    r.PostFormValue("title"),
		Message:  r.PostFormValue("message"),
		Audience: strings.TrimSpace(r.PostFormValue("audience")),
		UserID:   r.PostFormValue("user_id"),
	})
	if err != nil {
		h.pages.Fail(w, r, "/notifications", err)
		return
	}
	msg := "Notification sent"
	if outcome == Queued {
		msg = "Notification queued for delivery"
	}
	h.pages.Redirect(w, r, "/notifications", shared.FlashSuccess, msg)
}
