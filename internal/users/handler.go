package users

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

// Handler manages user management endpoints.
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

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.ViewUsers))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.showUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.ManageUsers))
		r.Post("/{id}/status", h.setStatus)
		r.Post("/{id}/profile", h.updateProfile)
	})
	r.With(h.rbac.RequireAny(rbac.ManageVerifications)).Post("/{id}/verify", h.verify)
	r.With(h.rbac.RequireAny(rbac.DeleteUsers)).Post("/{id}/delete", h.deleteUser)
	r.With(h.rbac.RequireAny(rbac.AdjustBalances)).Post("/{id}/balance", h.adjustBalance)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := Filter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
	}
	page := shared.PageFromRequest(r)
	data := ListPage{Filter: filter, Statuses: Statuses}
	result, err := h.service.List(r.Context(), auth.TokenFromContext(r.Context()), filter, page)
	if err != nil {
		if h.pages.LoggedOut(w, r, err) {
			return
		}
		h.logger.Error("list users failed", slog.Any("error", err))
		data.Error = view.ErrorMessage(err)
		h.pages.Render(w, r, "pages/users.html", "Users", data, http.StatusBadGateway)
		return
	}
	data.Users = result.Items
	data.Pagination = shared.NewPagination(page, shared.DefaultPerPage, result.Total)
	h.pages.Render(w, r, "pages/users.html", "Users", data, http.StatusOK)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.Get(r.Context(), auth.TokenFromContext(r.Context()), id)
	if err != nil {
		h.pages.Fail(w, r, "/users", err)
		return
	}
	h.pages.Render(w, r, "pages/user_detail.html", user.DisplayName(), DetailPage{User: user, Statuses: Statuses}, http.StatusOK)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := h.back(r, id)
	form := statusForm{
		Status: strings.TrimSpace(r.PostFormValue("status")),
		Reason: strings.TrimSpace(r.PostFormValue("reason")),
	}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.SetStatus(r.Context(), actor, auth.TokenFromContext(r.Context()), id, form.Status, form.Reason); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "User status set to "+form.Status)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := h.back(r, id)
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Verify(r.Context(), actor, auth.TokenFromContext(r.Context()), id); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "User verified")
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/users/" + id
	form := profileForm{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Phone: strings.TrimSpace(r.PostFormValue("phone")),
	}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	update := backend.ProfileUpdate{Name: form.Name, Email: form.Email, Phone: form.Phone}
	if _, err := h.service.UpdateProfile(r.Context(), actor, auth.TokenFromContext(r.Context()), id, update); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "Profile updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, auth.TokenFromContext(r.Context()), id); err != nil {
		h.pages.Fail(w, r, "/users/"+id, err)
		return
	}
	h.pages.Redirect(w, r, "/users", shared.FlashSuccess, "User deleted")
}

func (h *Handler) adjustBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := "/users/" + id
	amount, err := view.ParseNumber(r.PostFormValue("amount"))
	if err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, "Amount must be a number")
		return
	}
	form := balanceForm{Amount: amount, Reason: strings.TrimSpace(r.PostFormValue("reason"))}
	if err := h.validator.Struct(form); err != nil {
		h.pages.Redirect(w, r, back, shared.FlashError, view.ValidationErrors(err).First())
		return
	}
	actor, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.AdjustBalance(r.Context(), actor, auth.TokenFromContext(r.Context()), id, form.Amount, form.Reason); err != nil {
		h.pages.Fail(w, r, back, err)
		return
	}
	h.pages.Redirect(w, r, back, shared.FlashSuccess, "Balance adjusted")
}

// back returns to the list when the action was posted from it.
func (h *Handler) back(r *http.Request, id string) string {
	if r.PostFormValue("from") == "list" {
		return "/users"
	}
	return "/users/" + id
}
