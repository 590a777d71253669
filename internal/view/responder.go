package view

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// LoginPath is where anonymous visitors and expired sessions are sent.
const LoginPath = "/auth/login"

// Responder bundles the rendering and redirect helpers every page handler
// needs.
type Responder struct {
	logger    *slog.Logger
	templates *Engine
	csrf      *shared.CSRFManager
	sessions  *shared.SessionManager
	audit     bool
}

// NewResponder constructs a Responder.
func NewResponder(logger *slog.Logger, templates *Engine, csrf *shared.CSRFManager, sessions *shared.SessionManager) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, templates: templates, csrf: csrf, sessions: sessions}
}

// EnableAuditLog turns on the audit log navigation entry.
func (p *Responder) EnableAuditLog() {
	p.audit = true
}

// Render writes the named page with the common layout data.
func (p *Responder) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := p.csrf.EnsureToken(r.Context(), sess)
	principal, _ := rbac.PrincipalFromContext(r.Context())
	viewData := TemplateData{
		Title:        title,
		CSRFToken:    csrfToken,
		Flash:        sess.PopFlash(),
		CurrentPath:  r.URL.Path,
		Principal:    principal,
		AuditEnabled: p.audit,
		Data:         data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.templates.Render(w, name, viewData); err != nil {
		p.logger.Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

// Redirect sends the browser to location with a flash message.
func (p *Responder) Redirect(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if message != "" {
		shared.AddFlash(r.Context(), kind, message)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Fail reports a failed backend call. An unauthorized response ends the
// session without a message; anything else flashes the backend message
// and redirects to location.
func (p *Responder) Fail(w http.ResponseWriter, r *http.Request, location string, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		p.Logout(w, r)
		return
	}
	p.logger.Warn("backend call failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	p.Redirect(w, r, location, shared.FlashError, ErrorMessage(err))
}

// ErrorMessage turns an error into text safe to show to staff.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrForbidden):
		return "Your role does not allow this action"
	case errors.Is(err, shared.ErrInvalidInput):
		return "The submitted values are not valid"
	case errors.Is(err, shared.ErrNotFound):
		return "The record no longer exists"
	}
	return backend.Message(err)
}

// LoggedOut ends the session when err is a backend 401 and reports
// whether it did. Pages that render errors inline use it before rendering.
func (p *Responder) LoggedOut(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	p.Logout(w, r)
	return true
}

// Logout destroys the session and sends the browser to the login page.
func (p *Responder) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && p.sessions != nil {
		p.sessions.Destroy(sess)
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// Forbidden renders the access denied page.
func (p *Responder) Forbidden(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "pages/forbidden.html", "Access denied", nil, http.StatusForbidden)
}
