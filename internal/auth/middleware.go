package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Middleware restores the principal from the session and revalidates the
// backend token periodically.
type Middleware struct {
	logger     *slog.Logger
	service    *Service
	sessions   *shared.SessionManager
	store      Store
	revalidate time.Duration
	now        func() time.Time
}

// NewMiddleware constructs the auth middleware. A non-positive revalidate
// interval checks the token on every request.
func NewMiddleware(logger *slog.Logger, service *Service, sessions *shared.SessionManager, revalidate time.Duration) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{logger: logger, service: service, sessions: sessions, revalidate: revalidate, now: time.Now}
}

// Authenticate places the principal and token in the request context when
// the session is logged in. An expired or rejected token ends the session
// silently.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, user, ok := m.store.Load(sess)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if m.revalidate <= 0 || m.now().Sub(user.ValidatedAt) >= m.revalidate {
			fresh, err := m.service.Validate(r.Context(), token)
			switch {
			case errors.Is(err, shared.ErrSessionExpired):
				m.logger.Info("backend token rejected, logging out", slog.String("user", user.Email))
				m.store.Clear(sess)
				m.sessions.Renew(sess)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				m.logger.Warn("token revalidation failed", slog.String("user", user.Email), slog.Any("error", err))
			default:
				if fresh.ID == "" {
					fresh.ID = user.ID
				}
				user = fresh
				if err := m.store.SaveUser(sess, user); err != nil {
					m.logger.Warn("store session user", slog.Any("error", err))
				}
			}
		}

		ctx := rbac.ContextWithPrincipal(r.Context(), user.Principal())
		ctx = ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireLogin redirects anonymous visitors to the login page.
func (m *Middleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := rbac.PrincipalFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		target := LoginPath
		if r.Method == http.MethodGet && r.URL.Path != "/" {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}
