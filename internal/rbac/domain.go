package rbac

import "strings"

// Role is the classification of a staff account. Only two values exist.
type Role string

const (
	// RoleAdmin is a regular staff administrator.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin has every capability.
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole maps a stored role back onto the enum. Anything that is not
// the super-admin value collapses to RoleAdmin.
func ParseRole(value string) Role {
	if Role(strings.ToLower(strings.TrimSpace(value))) == RoleSuperAdmin {
		return RoleSuperAdmin
	}
	return RoleAdmin
}

// String returns the wire value.
func (r Role) String() string {
	return string(r)
}

// Label is the human readable name shown in the UI.
func (r Role) Label() string {
	if r == RoleSuperAdmin {
		return "Super Admin"
	}
	return "Admin"
}

// IsSuper reports whether the role is the super-admin role.
func (r Role) IsSuper() bool {
	return r == RoleSuperAdmin
}

// Identity is the loosely shaped identity record returned by the backend.
// Every field may be missing.
type Identity struct {
	ID          string
	Email       string
	Name        string
	Role        string
	Permissions []string
	AvatarURL   string
}

// Principal describes the authenticated staff member for one request.
type Principal struct {
	UserID      string
	Email       string
	Name        string
	Role        Role
	Permissions PermissionSet
}

// NewPrincipal builds a principal, deriving permissions from the role.
func NewPrincipal(userID, email, name string, role Role) Principal {
	return Principal{
		UserID:      userID,
		Email:       email,
		Name:        name,
		Role:        role,
		Permissions: PermissionsFor(role),
	}
}

// Can reports whether the principal holds the capability.
func (p Principal) Can(c Capability) bool {
	return p.Permissions.Has(c)
}

// Authenticated reports whether the principal belongs to a logged-in user.
func (p Principal) Authenticated() bool {
	return p.UserID != "" || p.Email != ""
}
