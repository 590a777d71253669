package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-impact/admin-dashboard/internal/app"
	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/observability"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/security"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "https://api.example.com/api")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 15*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "superadmin@sourceimpact.com", cfg.SuperAdminEmail)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Empty(t, cfg.PGDSN)
	assert.Equal(t, int32(4), cfg.PGMaxConns)
	assert.Equal(t, "127.0.0.1:6379", cfg.Redis().Addr)
	assert.Equal(t, "127.0.0.1:6379", cfg.AsynqRedis().Addr)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsRelativeBackend(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "/api")

	_, err := app.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BACKEND_URL", "https://api.example.com")

	_, err := app.LoadConfig()
	assert.Error(t, err)
}

type anonymousBackend struct{}

func (anonymousBackend) Login(context.Context, string, string) (backend.LoginResult, error) {
	return backend.LoginResult{}, &backend.Error{Op: backend.OpLogin, Kind: backend.KindUnauthorized, Message: "Invalid credentials"}
}

func (anonymousBackend) Me(context.Context, string) (rbac.Identity, error) {
	return rbac.Identity{}, &backend.Error{Op: backend.OpMe, Kind: backend.KindUnauthorized}
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &app.Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: 5 * time.Second}
	sessions := shared.NewSessionManager(client, "impact_admin_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, csrf, sessions)
	service := auth.NewService(anonymousBackend{}, rbac.NewResolver("", ""))

	return app.NewRouter(app.RouterParams{
		Logger:          nil,
		Config:          cfg,
		SessionManager:  sessions,
		CSRFManager:     csrf,
		Auth:            auth.NewMiddleware(nil, service, sessions, time.Minute),
		Metrics:         observability.NewMetrics(),
		AuthHandler:     auth.NewHandler(nil, service, pages, sessions, csrf, nil),
		SecurityHandler: security.NewHandler(nil, pages),
	})
}

func TestRouterPublicEndpoints(t *testing.T) {
	h := newRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Empty(t, rr.Header().Values("Set-Cookie"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterRedirectsAnonymousToLogin(t *testing.T) {
	h := newRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/security", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), view.LoginPath))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterLoginPageSetsSecurityHeaders(t *testing.T) {
	h := newRouter(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, rr.Header().Values("Set-Cookie"))
}

func TestRouterRejectsPostWithoutCSRF(t *testing.T) {
	h := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("email=a%40b.c&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
