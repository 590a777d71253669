package e2e

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync"
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
	"github.com/source-impact/admin-dashboard/internal/users"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

// fakeBackend mimics an older API: login lives under /auth and status
// changes only accept PUT.
type fakeBackend struct {
	mu   sync.Mutex
	hits map[string]int
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.hits[key]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch key {
	case "POST /auth/login":
		_, _ = io.WriteString(w, `{"success":true,"data":{"token":"tok-1","user":{"_id":"a1","email":"ops@example.com","name":"Ops","role":"admin"}}}`)
	case "GET /admin/me":
		_, _ = io.WriteString(w, `{"data":{"user":{"_id":"a1","email":"ops@example.com","name":"Ops","role":"admin"}}}`)
	case "GET /admin/users":
		_, _ = io.WriteString(w, `{"success":true,"data":{"users":[{"_id":"u1","email":"member@example.com","firstName":"Mem","lastName":"Ber","balance":"12.50"}],"pagination":{"total":1}}}`)
	case "PUT /admin/users/u1/status":
		_, _ = io.WriteString(w, `{"success":true,"message":"Status updated"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"message":"Route not found"}`)
	}
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func csrfFrom(t *testing.T, body string) string {
	t.Helper()
	m := csrfPattern.FindStringSubmatch(body)
	require.Len(t, m, 2, "page carries no csrf token")
	return m[1]
}

func newDashboard(t *testing.T, fake *fakeBackend) *httptest.Server {
	t.Helper()
	api := httptest.NewServer(fake)
	t.Cleanup(api.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	client := backend.NewClient(api.URL, 2*time.Second, backend.WithRouteMemo(backend.NewRedisMemo(rdb, time.Hour)))
	cfg := &app.Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: 5 * time.Second}
	sessions := shared.NewSessionManager(rdb, "impact_admin_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, csrf, sessions)
	guard := rbac.Middleware{Denied: http.HandlerFunc(pages.Forbidden)}
	authService := auth.NewService(client, rbac.NewResolver("", ""))

	router := app.NewRouter(app.RouterParams{
		Config:          cfg,
		SessionManager:  sessions,
		CSRFManager:     csrf,
		Auth:            auth.NewMiddleware(nil, authService, sessions, time.Minute),
		Metrics:         observability.NewMetrics(),
		AuthHandler:     auth.NewHandler(nil, authService, pages, sessions, csrf, nil),
		UsersHandler:    users.NewHandler(nil, users.NewService(client, nil, nil), pages, guard),
		SecurityHandler: security.NewHandler(nil, pages),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, c *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, c *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(target, form)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestAdminSignsInAndSuspendsMember(t *testing.T) {
	fake := &fakeBackend{hits: map[string]int{}}
	srv := newDashboard(t, fake)
	browser := newBrowser(t)

	resp, body := get(t, browser, srv.URL+"/users")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/auth/login?next=%2Fusers", resp.Header.Get("Location"))

	_, body = get(t, browser, srv.URL+"/auth/login")
	resp = post(t, browser, srv.URL+"/auth/login", url.Values{
		"csrf_token": {csrfFrom(t, body)},
		"email":      {"ops@example.com"},
		"password":   {"secret"},
		"next":       {"/users"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/users", resp.Header.Get("Location"))
	assert.Equal(t, 1, fake.count("POST /admin/login"))
	assert.Equal(t, 1, fake.count("POST /auth/login"))

	resp, body = get(t, browser, srv.URL+"/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "member@example.com")
	assert.Contains(t, body, "Welcome back, Ops")
	assert.NotContains(t, body, `href="/settings"`)
	token := csrfFrom(t, body)

	for i := 0; i < 2; i++ {
		resp = post(t, browser, srv.URL+"/users/u1/status", url.Values{
			"csrf_token": {token},
			"status":     {"suspended"},
			"from":       {"list"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/users", resp.Header.Get("Location"))
	}
	// The PATCH route is probed once, then the remembered PUT is used.
	assert.Equal(t, 1, fake.count("PATCH /admin/users/u1/status"))
	assert.Equal(t, 2, fake.count("PUT /admin/users/u1/status"))

	resp = post(t, browser, srv.URL+"/users/u1/status", url.Values{
		"csrf_token": {token},
		"status":     {"banned"},
		"from":       {"list"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, fake.count("PUT /admin/users/u1/status"))

	_, body = get(t, browser, srv.URL+"/security")
	assert.Contains(t, body, "11 of 25 capabilities granted")
}

func TestLogoutEndsTheSession(t *testing.T) {
	fake := &fakeBackend{hits: map[string]int{}}
	srv := newDashboard(t, fake)
	browser := newBrowser(t)

	_, body := get(t, browser, srv.URL+"/auth/login")
	resp := post(t, browser, srv.URL+"/auth/login", url.Values{
		"csrf_token": {csrfFrom(t, body)},
		"email":      {"ops@example.com"},
		"password":   {"secret"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = get(t, browser, srv.URL+"/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"role":"admin"`)

	_, body = get(t, browser, srv.URL+"/security")
	resp = post(t, browser, srv.URL+"/auth/logout", url.Values{"csrf_token": {csrfFrom(t, body)}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = get(t, browser, srv.URL+"/session")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
