package settings

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// Handler serves the settings page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pages     *view.Responder
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(rbac.SystemSettings))
	r.Get("/", h.show)
	r.Post("/", h.update)
}

type settingsForm struct {
	PlatformFeePercent float64 `validate:"gte=0,lte=100"`
	SupportEmail       string  `validate:"omitempty,email"`
}

type flag struct {
	Name    string
	Enabled bool
}

type page struct {
	Settings backend.Settings
	Flags    []flag
	Error    string
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("load settings failed", slog.Any("error", err))
		h.pages.Render(w, r, "pages/settings.html", "Settings", page{Error: view.ErrorMessage(err)}, http.StatusBadGateway)
		return
	}
	data := page{Settings: current}
	for _, name := range FlagNames(current.FeatureFlags) {
		data.Flags = append(data.Flags, flag{Name: name, Enabled: current.FeatureFlags[name]})
	}
	h.pages.Render(w, r, "pages/settings.html", "Settings", data, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.pages.Redirect(w, r, "/settings", shared.FlashError, "Could not read the form")
		return
	}
	fee, err := view.ParseNumber(r.PostForm.Get("platform_fee_percent"))
	if err != nil {
		h.pages.Redirect(w, r, "/settings", shared.FlashError, "Platform fee must be a number")
		return
	}
	form := settingsForm{PlatformFeePercent: fee, SupportEmail: strings.TrimSpace(r.PostForm.Get("support_email"))}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, "/settings", shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	flags := map[string]bool{}
	for _, name := range r.PostForm["flags"] {
		flags[name] = true
	}
	next := backend.Settings{
		PlatformFeePercent: backend.Number(form.PlatformFeePercent),
		MaintenanceMode:    r.PostForm.Get("maintenance_mode") == "on",
		SupportEmail:       form.SupportEmail,
		FeatureFlags:       flags,
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), actor, auth.TokenFromContext(r.Context()), next); err != nil {
		h.pages.Fail(w, r, "/settings", err)
		return
	}
	h.pages.Redirect(w, r, "/settings", shared.FlashSuccess, "Settings saved")
}
