package rbac

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Default addresses used when configuration does not override them.
const (
	DefaultSuperAdminEmail = "superadmin@sourceimpact.com"
	DefaultAdminEmail      = "admin@sourceimpact.com"
)

// Resolver classifies backend identities into one of the two roles.
type Resolver struct {
	superAdminEmail string
	adminEmail      string
}

// NewResolver constructs a Resolver. Empty addresses fall back to defaults.
func NewResolver(superAdminEmail, adminEmail string) Resolver {
	if strings.TrimSpace(superAdminEmail) == "" {
		superAdminEmail = DefaultSuperAdminEmail
	}
	if strings.TrimSpace(adminEmail) == "" {
		adminEmail = DefaultAdminEmail
	}
	return Resolver{
		superAdminEmail: normalize(superAdminEmail),
		adminEmail:      normalize(adminEmail),
	}
}

// Resolve picks the role for an identity. The first matching rule wins:
// well-known email, then the role string, then the permissions array.
// Without any signal the result is RoleAdmin.
func (r Resolver) Resolve(id Identity) Role {
	if email := normalize(id.Email); email != "" {
		switch email {
		case r.superAdminEmail:
			return RoleSuperAdmin
		case r.adminEmail:
			return RoleAdmin
		}
	}
	if role := normalize(id.Role); role != "" {
		if role == "superadmin" || role == "super_admin" {
			return RoleSuperAdmin
		}
		return RoleAdmin
	}
	if id.Permissions != nil {
		for _, p := range id.Permissions {
			if p := normalize(p); p == "super_admin" || p == "superadmin" {
				return RoleSuperAdmin
			}
		}
		return RoleAdmin
	}
	return RoleAdmin
}

// ResolvePayload decodes a raw backend body and resolves its role.
func (r Resolver) ResolvePayload(raw []byte) (Identity, Role) {
	id := ParseIdentity(raw)
	return id, r.Resolve(id)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// envelopeKeys are checked in order when looking for the identity record.
var envelopeKeys = []string{"user", "admin", "profile"}

// ParseIdentity extracts an Identity from any of the envelope shapes the
// backend uses. Unparseable input yields the zero Identity.
func ParseIdentity(raw []byte) Identity {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return Identity{}
	}
	return IdentityFromMap(unwrapIdentity(root))
}

func unwrapIdentity(root map[string]any) map[string]any {
	current := root
	if data, ok := current["data"].(map[string]any); ok {
		current = data
	}
	for _, key := range envelopeKeys {
		if inner, ok := current[key].(map[string]any); ok {
			return inner
		}
	}
	return current
}

// IdentityFromMap reads identity fields from a decoded JSON object.
func IdentityFromMap(m map[string]any) Identity {
	if m == nil {
		return Identity{}
	}
	id := Identity{
		ID:        firstString(m, "id", "_id", "userId", "user_id"),
		Email:     firstString(m, "email"),
		Name:      firstString(m, "name", "fullName", "full_name", "username"),
		Role:      roleString(m["role"]),
		AvatarURL: firstString(m, "avatar", "avatarUrl", "avatar_url", "profileImage"),
	}
	if id.Name == "" {
		first := firstString(m, "firstName", "first_name")
		last := firstString(m, "lastName", "last_name")
		id.Name = strings.TrimSpace(first + " " + last)
	}
	if perms, ok := m["permissions"].([]any); ok {
		id.Permissions = make([]string, 0, len(perms))
		for _, p := range perms {
			if s, ok := p.(string); ok {
				id.Permissions = append(id.Permissions, s)
			}
		}
	}
	return id
}

func roleString(v any) string {
	switch role := v.(type) {
	case string:
		return role
	case map[string]any:
		return firstString(role, "name", "slug", "value")
	default:
		return ""
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
