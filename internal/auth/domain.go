package auth

import (
	"time"

	"github.com/source-impact/admin-dashboard/internal/rbac"
)

// SessionUser is the staff member bound to a dashboard session.
type SessionUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        rbac.Role `json:"role"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Principal derives the request principal. Permissions are recomputed
// from the role each time and never stored.
func (u SessionUser) Principal() rbac.Principal {
	return rbac.NewPrincipal(u.ID, u.Email, u.DisplayName(), u.Role)
}

// DisplayName prefers the name and falls back to the email.
func (u SessionUser) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func newSessionUser(id rbac.Identity, role rbac.Role, now time.Time) SessionUser {
	return SessionUser{
		ID:          id.ID,
		Email:       id.Email,
		Name:        id.Name,
		Role:        role,
		AvatarURL:   id.AvatarURL,
		ValidatedAt: now,
	}
}
