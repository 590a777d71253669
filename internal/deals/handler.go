package deals

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// Handler serves the deals pages.
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

// MountRoutes registers deal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.ViewDeals))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.With(h.rbac.RequireAny(rbac.ManageDeals)).Post("/{id}/status", h.setStatus)
	r.With(h.rbac.RequireAny(rbac.AdjustDealAmounts)).Post("/{id}/amount", h.adjustAmount)
	r.With(h.rbac.RequireAny(rbac.DeleteDeals)).Post("/{id}/delete", h.delete)
}

type filter struct {
	Query  string
	Status string
}

type listPage struct {
	Deals      []backend.Deal
	Filter     filter
	Statuses   []string
	Pagination shared.Pagination
	Error      string
}

type detailPage struct {
	Deal     backend.Deal
	Statuses []string
}

type amountForm struct {
	Amount float64 `validate:"gt=0"`
	Reason string  `validate:"required,max=500"`
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
		h.logger.Error("list deals failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/deals.html", "Deals", data, http.StatusBadGateway)
		return
	}
	data.Deals = result.Items
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/deals.html", "Deals", data, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	deal, err := h.service.Get(r.Context(), auth.TokenFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.pages.Fail(w, r, "/deals", err)
		return
	}
	title := deal.Title
	if title == "" {
		title = "Deal " + string(deal.ID)
	}
	h.pages.Render(w, r, "pages/deal_detail.html", title, detailPage{Deal: deal, Statuses: Statuses}, http.StatusOK)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/deals/" + id
	status := strings.TrimSpace(r.PostFormValue("status"))
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.SetStatus(r.Context(), actor, auth.TokenFromContext(r.Context()), id, status); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "Deal moved to "+strings.ReplaceAll(status, "_", " "))
}

func (h *Handler) adjustAmount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/deals/" + id
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("amount")), 64)
	if err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, "Amount must be a number")
		return
	}
	form := amountForm{Amount: amount, Reason: strings.TrimSpace(r.PostFormValue("reason"))}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.AdjustAmount(r.Context(), actor, auth.TokenFromContext(r.Context()), id, form.Amount, form.Reason); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "Deal amount updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, auth.TokenFromContext(r.Context()), id); err != nil {
		h.pages.Fail(w, r, "/deals/"+id, err)
		return
	}
	h.pages.Redirect(w, r, "/deals", shared.FlashSuccess, "Deal deleted")
}
