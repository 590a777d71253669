package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmailOverridesEverything(t *testing.T) {
	r := NewResolver("", "")
	cases := []Identity{
		{Email: "superadmin@sourceimpact.com"},
		{Email: "SuperAdmin@SourceImpact.com", Role: "admin"},
		{Email: " superadmin@sourceimpact.com ", Role: "moderator", Permissions: []string{"view_users"}},
	}
	for _, id := range cases {
		assert.Equal(t, RoleSuperAdmin, r.Resolve(id), id.Email)
	}

	assert.Equal(t, RoleAdmin, r.Resolve(Identity{Email: "ADMIN@sourceimpact.com", Role: "SUPER_ADMIN"}))
}

func TestResolveRoleString(t *testing.T) {
	r := NewResolver("", "")
	cases := map[string]Role{
		"SUPER_ADMIN": RoleSuperAdmin,
		"super_admin": RoleSuperAdmin,
		"SuperAdmin":  RoleSuperAdmin,
		"superadmin":  RoleSuperAdmin,
		"Admin":       RoleAdmin,
		"moderator":   RoleAdmin,
		"super admin": RoleAdmin,
	}
	for role, want := range cases {
		got := r.Resolve(Identity{Email: "someone@example.com", Role: role, Permissions: []string{"SUPER_ADMIN"}})
		assert.Equal(t, want, got, role)
	}
}

func TestResolvePermissionsArray(t *testing.T) {
	r := NewResolver("", "")
	assert.Equal(t, RoleSuperAdmin, r.Resolve(Identity{Permissions: []string{"SUPER_ADMIN", "other"}}))
	assert.Equal(t, RoleSuperAdmin, r.Resolve(Identity{Permissions: []string{"superadmin"}}))
	assert.Equal(t, RoleAdmin, r.Resolve(Identity{Permissions: []string{"view_users"}}))
	assert.Equal(t, RoleAdmin, r.Resolve(Identity{Permissions: []string{}}))
}

func TestResolveDefaultsToAdmin(t *testing.T) {
	r := NewResolver("", "")
	assert.Equal(t, RoleAdmin, r.Resolve(Identity{}))
	assert.Equal(t, RoleAdmin, r.Resolve(Identity{Email: "nobody@example.com"}))
}

func TestResolveConfiguredAddresses(t *testing.T) {
	r := NewResolver("Owner@Example.com", "ops@example.com")
	assert.Equal(t, RoleSuperAdmin, r.Resolve(Identity{Email: "owner@example.com"}))
	assert.Equal(t, RoleAdmin, r.Resolve(Identity{Email: "ops@example.com", Role: "superadmin"}))
	assert.Equal(t, RoleSuperAdmin, r.Resolve(Identity{Email: "superadmin@sourceimpact.com", Role: "superadmin"}), "role string still applies")
}

func TestResolvePayloadScenarios(t *testing.T) {
	r := NewResolver("", "")
	cases := []struct {
		name    string
		payload string
		role    Role
	}{
		{"admin email", `{"email":"admin@sourceimpact.com"}`, RoleAdmin},
		{"role Admin", `{"role":"Admin"}`, RoleAdmin},
		{"permissions", `{"permissions":["SUPER_ADMIN","other"]}`, RoleSuperAdmin},
		{"empty", `{}`, RoleAdmin},
		{"garbage", `not json`, RoleAdmin},
		{"data user envelope", `{"data":{"user":{"email":"x@y.z","role":"SUPER_ADMIN"}}}`, RoleSuperAdmin},
		{"admin envelope", `{"admin":{"role":{"name":"superadmin"}}}`, RoleSuperAdmin},
		{"data envelope", `{"success":true,"data":{"email":"superadmin@sourceimpact.com"}}`, RoleSuperAdmin},
		{"mixed permission types", `{"permissions":[1,null,"superadmin"]}`, RoleSuperAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, role := r.ResolvePayload([]byte(tc.payload))
			assert.Equal(t, tc.role, role)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver("", "")
	id := Identity{Role: "SUPER_ADMIN", Permissions: []string{"x"}}
	first := r.Resolve(id)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, r.Resolve(id))
	}
	assert.Equal(t, []string{"x"}, id.Permissions)
}

func TestParseIdentityFields(t *testing.T) {
	id := ParseIdentity([]byte(`{"data":{"user":{"_id":12,"email":"a@b.c","firstName":"Ada","lastName":"Lovelace","avatarUrl":"https://cdn/a.png","permissions":["view_users"]}}}`))
	assert.Equal(t, "12", id.ID)
	assert.Equal(t, "a@b.c", id.Email)
	assert.Equal(t, "Ada Lovelace", id.Name)
	assert.Equal(t, "https://cdn/a.png", id.AvatarURL)
	require.Len(t, id.Permissions, 1)
	assert.Empty(t, id.Role)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleSuperAdmin, ParseRole(" SuperAdmin "))
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole(""))
	assert.Equal(t, RoleAdmin, ParseRole("root"))
	assert.Equal(t, "Super Admin", RoleSuperAdmin.Label())
	assert.True(t, RoleSuperAdmin.IsSuper())
	assert.False(t, RoleAdmin.IsSuper())
}
