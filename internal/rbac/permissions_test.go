package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsForSuperAdminGrantsEverything(t *testing.T) {
	perms := PermissionsFor(RoleSuperAdmin)
	for _, c := range AllCapabilities() {
		assert.True(t, perms.Has(c), c)
	}
	assert.Len(t, perms.Granted(), len(AllCapabilities()))
}

func TestPermissionsForAdminSubset(t *testing.T) {
	perms := PermissionsFor(RoleAdmin)
	granted := []Capability{
		ViewUsers, ManageUsers, ViewDeals, ManageDeals, ViewGigs, ManageGigs,
		ModerateContent, ManageVerifications, ManageSupport, ViewAnalytics, ManageRewards,
	}
	allowed := map[Capability]bool{}
	for _, c := range granted {
		allowed[c] = true
	}
	for _, c := range AllCapabilities() {
		assert.Equal(t, allowed[c], perms.Has(c), c)
	}
	assert.False(t, perms.SystemSettings)
	assert.True(t, perms.ViewUsers)
	assert.False(t, perms.BanUsers)
	assert.True(t, perms.ManageUsers)
}

func TestPermissionsForUnknownRoleIsAdmin(t *testing.T) {
	assert.Equal(t, PermissionsFor(RoleAdmin), PermissionsFor(Role("owner")))
	assert.False(t, PermissionsFor(RoleSuperAdmin).Has(Capability("launch_rockets")))
}

func TestPermissionsForReturnsCopies(t *testing.T) {
	perms := PermissionsFor(RoleAdmin)
	perms.SystemSettings = true
	assert.False(t, PermissionsFor(RoleAdmin).SystemSettings)
}

func TestCapabilityNamesMatchJSON(t *testing.T) {
	data, err := json.Marshal(PermissionsFor(RoleSuperAdmin))
	require.NoError(t, err)
	var fields map[string]bool
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Len(t, fields, len(AllCapabilities()))
	for _, c := range AllCapabilities() {
		assert.True(t, fields[string(c)], c)
	}
}

func TestMatrix(t *testing.T) {
	rows := Matrix(RoleAdmin)
	require.Len(t, rows, len(AllCapabilities()))
	for _, row := range rows {
		assert.True(t, row.SuperAdmin)
		assert.Equal(t, row.Admin, row.Granted)
	}
	for _, row := range Matrix(RoleSuperAdmin) {
		assert.True(t, row.Granted)
	}
}

func TestPrincipalDerivesPermissions(t *testing.T) {
	p := NewPrincipal("u1", "a@b.c", "Ann", RoleAdmin)
	assert.True(t, p.Can(ViewUsers))
	assert.False(t, p.Can(DeleteUsers))
	assert.True(t, p.Authenticated())
	assert.False(t, Principal{}.Authenticated())
}
