package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// LoginPath is the login page location.
const LoginPath = view.LoginPath

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Responder
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	audit          shared.AuditRecorder
	store          Store
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Responder, sessions *shared.SessionManager, csrf *shared.CSRFManager, audit shared.AuditRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		pages:          pages,
		sessionManager: sessions,
		csrfManager:    csrf,
		audit:          audit,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := rbac.PrincipalFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := loginPageData{Form: loginForm{Next: safeNext(r.URL.Query().Get("next"))}}
	h.pages.Render(w, r, "pages/login.html", "Sign in", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Next:     safeNext(r.PostFormValue("next")),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = fieldMessage(fieldErr)
		}
	}

	if len(errors) == 0 && sess != nil {
		token, user, err := h.service.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			h.logger.Info("login rejected", slog.String("email", form.Email), slog.Any("error", err))
			errors["general"] = backend.Message(err)
		} else if err := h.store.Save(sess, token, user); err != nil {
			h.logger.Error("store login", slog.Any("error", err))
			errors["general"] = "Could not start the session, please try again"
		} else {
			h.sessionManager.Renew(sess)
			h.csrfManager.Rotate(sess)
			h.record(r, user, "auth.login")
			h.logger.Info("admin logged in", slog.String("user", user.Email), slog.String("role", user.Role.String()))
			target := form.Next
			if target == "" {
				target = "/"
			}
			h.pages.Redirect(w, r, target, shared.FlashSuccess, "Welcome back, "+user.DisplayName())
			return
		}
	}
	if sess == nil {
		h.logger.Error("session missing during login")
		errors["general"] = "Could not start the session, please try again"
	}

	form.Password = ""
	h.pages.Render(w, r, "pages/login.html", "Sign in", loginPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if _, user, ok := h.store.Load(sess); ok {
		h.record(r, user, "auth.logout")
	}
	h.pages.Logout(w, r)
}

func (h *Handler) record(r *http.Request, user SessionUser, action string) {
	entityID := user.ID
	if entityID == "" {
		entityID = user.Email
	}
	shared.RecordAudit(r.Context(), h.audit, h.logger, shared.AuditLog{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Action:     action,
		Entity:     "session",
		EntityID:   entityID,
		Meta:       map[string]any{"ip": r.RemoteAddr, "role": user.Role.String()},
	})
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	default:
		return err.Error()
	}
}

// safeNext keeps only local absolute paths so the login form cannot be
// used as an open redirect.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
