package rewards

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

// Handler serves the rewards page.
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

// MountRoutes registers reward routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.ManageRewards)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.CreateRewards)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.ManageRewards)).Post("/{id}/toggle", h.toggle)
}

type triggerForm struct {
	Name        string  `validate:"required,max=80"`
	Event       string  `validate:"required,oneof=signup profile_completed first_deal deal_completed referral review_left"`
	Points      float64 `validate:"gt=0,lte=100000"`
	Description string  `validate:"max=280"`
}

type listPage struct {
	Triggers []backend.RewardTrigger
	Events   []string
	Error    string
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	data := listPage{Events: Events}
	triggers, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list reward triggers failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/rewards.html", "Rewards", data, http.StatusBadGateway)
		return
	}
	data.Triggers = triggers
	h.pages.Render(w, r, "pages/rewards.html", "Rewards", data, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	points, err := view.ParseNumber(r.PostFormValue("points"))
	if err != nil {
		h.pages.Redirect(w, r, "/rewards", shared.FlashError, "Points must be a number")
		return
	}
	form := triggerForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Event:       strings.TrimSpace(r.PostFormValue("event")),
		Points:      points,
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, "/rewards", shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	_, err = h.service.Create(r.Context(), actor, auth.TokenFromContext(r.Context()), backend.NewRewardTrigger{
		Name:        form.Name,
		Event:       form.Event,
		Points:      form.Points,
		Description: form.Description,
		Active:      r.PostFormValue("active") == "on",
	})
	if err != nil {
		h.pages.Fail(w, r, "/rewards", err)
		return
	}
	h.pages.Redirect(w, r, "/rewards", shared.FlashSuccess, "Reward trigger created")
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	active := r.PostFormValue("active") == "true"
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.SetActive(r.Context(), actor, auth.TokenFromContext(r.Context()), chi.URLParam(r, "id"), active); err != nil {
		h.pages.Fail(w, r, "/rewards", err)
		return
	}
	msg := "Reward trigger paused"
	if active {
		msg = "Reward trigger enabled"
	}
	h.pages.Redirect(w, r, "/rewards", shared.FlashSuccess, msg)
}
