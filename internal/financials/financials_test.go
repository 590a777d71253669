package financials_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/financials"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

type stubGateway struct {
	jobs     []backend.EscrowJob
	released []string
}

func (s *stubGateway) ListEscrowJobs(context.Context, string, backend.ListParams) (backend.Page[backend.EscrowJob], error) {
	return backend.Page[backend.EscrowJob]{Items: s.jobs, Total: len(s.jobs)}, nil
}

func (s *stubGateway) ReleaseEscrow(_ context.Context, _ string, id, _ string) (backend.Result, error) {
	s.released = append(s.released, id)
	return backend.Result{Success: true}, nil
}

func newRouter(t *testing.T, gw *stubGateway) http.Handler {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, shared.NewCSRFManager("x"), nil)
	r := chi.NewRouter()
	r.Route("/financials", financials.NewHandler(nil, financials.NewService(gw, nil, nil), pages, rbac.Middleware{}).MountRoutes)
	return r
}

func do(h http.Handler, role rbac.Role, method, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	ctx := rbac.ContextWithPrincipal(req.Context(), rbac.NewPrincipal("s1", "s@example.com", "S", role))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req.WithContext(auth.ContextWithToken(ctx, "tok")))
	return res
}

func TestSummarize(t *testing.T) {
	sum := financials.Summarize([]backend.EscrowJob{
		{Amount: 100, Status: "held"},
		{Amount: 50, Status: "Released"},
		{Amount: 30, Status: "refunded"},
		{Amount: 20, Status: ""},
	})
	assert.Equal(t, 4, sum.Count)
	assert.InDelta(t, 120, sum.Held, 0.001)
	assert.InDelta(t, 50, sum.Released, 0.001)
}

func TestReleaseOnlyForSuperAdmin(t *testing.T) {
	gw := &stubGateway{jobs: []backend.EscrowJob{{ID: "e1", Amount: 75, Status: "held"}}}
	router := newRouter(t, gw)

	res := do(router, rbac.RoleAdmin, http.MethodGet, "/financials/", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.NotContains(t, res.Body.String(), "/financials/escrow/e1/release")

	assert.Equal(t, http.StatusForbidden, do(router, rbac.RoleAdmin, http.MethodPost, "/financials/escrow/e1/release", url.Values{"reason": {"x"}}).Code)

	res = do(router, rbac.RoleSuperAdmin, http.MethodGet, "/financials/", nil)
	assert.Contains(t, res.Body.String(), "/financials/escrow/e1/release")

	do(router, rbac.RoleSuperAdmin, http.MethodPost, "/financials/escrow/e1/release", url.Values{})
	assert.Empty(t, gw.released, "reason is required")
	res = do(router, rbac.RoleSuperAdmin, http.MethodPost, "/financials/escrow/e1/release", url.Values{"reason": {"work delivered"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, []string{"e1"}, gw.released)
}
