package settings_test

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
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/settings"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/internal/view"
	_ "github.com/source-impact/admin-dashboard/testing"
)

type stubGateway struct {
	current backend.Settings
	updates []backend.Settings
}

func (s *stubGateway) GetSettings(context.Context, string) (backend.Settings, error) {
	return s.current, nil
}

func (s *stubGateway) UpdateSettings(_ context.Context, _ string, next backend.Settings) (backend.Result, error) {
	s.updates = append(s.updates, next)
	return backend.Result{Success: true}, nil
}

func newGateway() *stubGateway {
	return &stubGateway{current: backend.Settings{
		PlatformFeePercent: 5,
		SupportEmail:       "help@example.com",
		FeatureFlags:       map[string]bool{"referrals": true, "instant_payouts": false},
	}}
}

type auditSpy struct {
	entries []shared.AuditLog
}

func (a *auditSpy) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func TestUpdateKeepsFlagsWithoutFeatureFlags(t *testing.T) {
	gw := newGateway()
	svc := settings.NewService(gw, nil, nil)
	actor := rbac.Principal{Email: "x@example.com", Permissions: rbac.PermissionSet{SystemSettings: true}}

	err := svc.Update(context.Background(), actor, "tok", backend.Settings{PlatformFeePercent: 7, FeatureFlags: map[string]bool{"instant_payouts": true}})
	require.NoError(t, err)
	require.Len(t, gw.updates, 1)
	assert.Equal(t, map[string]bool{"referrals": true, "instant_payouts": false}, gw.updates[0].FeatureFlags)
}

func TestUpdateMergesKnownFlags(t *testing.T) {
	gw := newGateway()
	audit := &auditSpy{}
	svc := settings.NewService(gw, audit, nil)
	actor := rbac.NewPrincipal("s1", "s@example.com", "S", rbac.RoleSuperAdmin)

	err := svc.Update(context.Background(), actor, "tok", backend.Settings{
		PlatformFeePercent: 5,
		SupportEmail:       "help@example.com",
		FeatureFlags:       map[string]bool{"instant_payouts": true, "made_up": true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"referrals": false, "instant_payouts": true}, gw.updates[0].FeatureFlags)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, true, audit.entries[0].Meta["flag.instant_payouts"])
	assert.Equal(t, false, audit.entries[0].Meta["flag.referrals"])
	assert.NotContains(t, audit.entries[0].Meta, "supportEmail")
}

func TestUpdateRejects(t *testing.T) {
	gw := newGateway()
	svc := settings.NewService(gw, nil, nil)
	err := svc.Update(context.Background(), rbac.NewPrincipal("a", "a@example.com", "A", rbac.RoleAdmin), "tok", backend.Settings{})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Update(context.Background(), rbac.NewPrincipal("s", "s@example.com", "S", rbac.RoleSuperAdmin), "tok", backend.Settings{PlatformFeePercent: 120})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, gw.updates)
}

func TestSettingsPage(t *testing.T) {
	gw := newGateway()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewResponder(nil, templates, shared.NewCSRFManager("x"), nil)
	r := chi.NewRouter()
	r.Route("/settings", settings.NewHandler(nil, settings.NewService(gw, nil, nil), pages, rbac.Middleware{}).MountRoutes)

	do := func(role rbac.Role, method string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/settings/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		ctx := auth.ContextWithToken(rbac.ContextWithPrincipal(req.Context(), rbac.NewPrincipal("s1", "s@example.com", "S", role)), "tok")
		res := httptest.NewRecorder()
		r.ServeHTTP(res, req.WithContext(ctx))
		return res
	}

	assert.Equal(t, http.StatusForbidden, do(rbac.RoleAdmin, http.MethodGet, nil).Code)

	res := do(rbac.RoleSuperAdmin, http.MethodGet, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "instant_payouts")
	assert.Contains(t, res.Body.String(), "help@example.com")

	res = do(rbac.RoleSuperAdmin, http.MethodPost, url.Values{"platform_fee_percent": {"abc"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	res = do(rbac.RoleSuperAdmin, http.MethodPost, url.Values{"platform_fee_percent": {"NaN"}, "support_email": {"help@example.com"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	res = do(rbac.RoleSuperAdmin, http.MethodPost, url.Values{"platform_fee_percent": {"4"}, "support_email": {"not-an-email"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Empty(t, gw.updates)

	res = do(rbac.RoleSuperAdmin, http.MethodPost, url.Values{"platform_fee_percent": {"4.5"}, "maintenance_mode": {"on"}, "flags": {"referrals"}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	require.Len(t, gw.updates, 1)
	assert.True(t, gw.updates[0].MaintenanceMode)
	assert.Equal(t, 4.5, gw.updates[0].PlatformFeePercent.Float())
	assert.True(t, gw.updates[0].FeatureFlags["referrals"])
}
