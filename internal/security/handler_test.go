package security_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/security"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

func newHandler(t *testing.T) *security.Handler {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	return security.NewHandler(nil, view.NewResponder(nil, templates, shared.NewCSRFManager("x"), nil))
}

func withPrincipal(req *http.Request, role rbac.Role) *http.Request {
	ctx := rbac.ContextWithPrincipal(req.Context(), rbac.NewPrincipal("u1", "staff@example.com", "Staff", role))
	ctx = shared.ContextWithSession(ctx, &shared.Session{})
	return req.WithContext(ctx)
}

func TestSessionReportsAdminCapabilities(t *testing.T) {
	h := newHandler(t)
	rr := httptest.NewRecorder()
	h.Session(rr, withPrincipal(httptest.NewRequest(http.MethodGet, "/session", nil), rbac.RoleAdmin))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Role         string   `json:"role"`
		Capabilities []string `json:"capabilities"`
		Permissions  map[string]bool
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "admin", body.Role)
	assert.Len(t, body.Capabilities, 11)
	assert.NotContains(t, body.Capabilities, "delete_users")
	assert.False(t, body.Permissions["system_settings"])
}

func TestSessionWithoutPrincipal(t *testing.T) {
	h := newHandler(t)
	rr := httptest.NewRecorder()
	h.Session(rr, httptest.NewRequest(http.MethodGet, "/session", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMatrixMarksGrantedRows(t *testing.T) {
	h := newHandler(t)
	r := chi.NewRouter()
	r.Route("/security", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, withPrincipal(httptest.NewRequest(http.MethodGet, "/security/", nil), rbac.RoleSuperAdmin))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "25 of 25 capabilities granted")
	assert.NotContains(t, body, `class="denied"`)
}
