package profile

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// Handler serves the own profile page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pages     *view.Responder
	store     auth.Store
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, validator: validator.New()}
}

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/", h.update)
	r.Post("/avatar", h.avatar)
}

type profileForm struct {
	Name  string `validate:"required,max=120"`
	Email string `validate:"required,email"`
	Phone string `validate:"omitempty,max=32"`
}

type page struct {
	User     auth.SessionUser
	Form     profileForm
	Errors   view.FormErrors
	MaxBytes int
}

func (h *Handler) current(r *http.Request) (*shared.Session, string, auth.SessionUser, bool) {
	sess := shared.SessionFromContext(r.Context())
	token, user, ok := h.store.Load(sess)
	return sess, token, user, ok
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	_, _, user, ok := h.current(r)
	if !ok {
		h.pages.Logout(w, r)
		return
	}
	h.render(w, r, user, profileForm{Name: user.Name, Email: user.Email}, nil, http.StatusOK)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, user auth.SessionUser, form profileForm, errs view.FormErrors, status int) {
	h.pages.Render(w, r, "pages/profile.html", "Your profile", page{User: user, Form: form, Errors: errs, MaxBytes: MaxAvatarBytes}, status)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sess, token, user, ok := h.current(r)
	if !ok {
		h.pages.Logout(w, r)
		return
	}
	form := profileForm{
		Name:  strings.TrimSpace(r.PostFormValue("name")),
		Email: strings.TrimSpace(r.PostFormValue("email")),
		Phone: strings.TrimSpace(r.PostFormValue("phone")),
	}
	if err := h.validator.Struct(form); err != nil {
		h.render(w, r, user, form, view.ValidationErrors(err), http.StatusBadRequest)
		return
	}
	next, err := h.service.Update(r.Context(), token, user, backend.ProfileUpdate{Name: form.Name, Email: form.Email, Phone: form.Phone})
	if err != nil {
		h.pages.Fail(w, r, "/profile", err)
		return
	}
	h.save(sess, next)
	h.pages.Redirect(w, r, "/profile", shared.FlashSuccess, "Profile updated")
}

func (h *Handler) avatar(w http.ResponseWriter, r *http.Request) {
	sess, token, user, ok := h.current(r)
	if !ok {
		h.pages.Logout(w, r)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.pages.Redirect(w, r, "/profile", shared.FlashError, "Choose an image to upload")
		return
	}
	defer func() { _ = file.Close() }()
	next, err := h.service.UploadAvatar(r.Context(), token, user, filepath.Base(header.Filename), file)
	if err != nil {
		h.pages.Fail(w, r, "/profile", err)
		return
	}
	h.save(sess, next)
	h.pages.Redirect(w, r, "/profile", shared.FlashSuccess, "Avatar updated")
}

func (h *Handler) save(sess *shared.Session, user auth.SessionUser) {
	if sess == nil {
		return
	}
	if err := h.store.SaveUser(sess, user); err != nil {
		h.logger.Warn("store refreshed user", slog.Any("error", err))
	}
}
