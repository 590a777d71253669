package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Backend is the subset of the API client used for authentication.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Me(ctx context.Context, token string) (rbac.Identity, error)
}

// Service wraps authentication business rules.
type Service struct {
	backend  Backend
	resolver rbac.Resolver
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(b Backend, resolver rbac.Resolver) *Service {
	return &Service{backend: b, resolver: resolver, now: time.Now}
}

// Login exchanges credentials for a token and resolves the staff role.
func (s *Service) Login(ctx context.Context, email, password string) (string, SessionUser, error) {
	result, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return "", SessionUser{}, err
	}
	identity := result.Identity
	if identity.ID == "" && identity.Email == "" {
		// Some login responses carry only the token.
		if me, err := s.backend.Me(ctx, result.Token); err == nil {
			identity = me
		}
	}
	if identity.Email == "" {
		identity.Email = strings.TrimSpace(email)
	}
	return result.Token, newSessionUser(identity, s.resolver.Resolve(identity), s.now()), nil
}

// Validate checks that the token is still accepted and re-resolves the
// role. shared.ErrSessionExpired means the session must end silently.
func (s *Service) Validate(ctx context.Context, token string) (SessionUser, error) {
	if token == "" || tokenExpired(token, s.now()) {
		return SessionUser{}, shared.ErrSessionExpired
	}
	identity, err := s.backend.Me(ctx, token)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			return SessionUser{}, shared.ErrSessionExpired
		}
		return SessionUser{}, err
	}
	return newSessionUser(identity, s.resolver.Resolve(identity), s.now()), nil
}

// Refresh rebuilds the session user after a profile change. The role is
// only resolved from backend data: when the update response carries no
// role signal, /admin/me is asked again, and if that fails the current
// role is kept. A 401 from /admin/me is returned so the caller logs out.
func (s *Service) Refresh(ctx context.Context, token string, current SessionUser, identity rbac.Identity) (SessionUser, error) {
	if !hasRoleSignal(identity) {
		me, err := s.backend.Me(ctx, token)
		if err != nil {
			if errors.Is(err, backend.ErrUnauthorized) {
				return current, err
			}
			return keepRole(current, identity), nil
		}
		if me.Name == "" {
			me.Name = identity.Name
		}
		if me.AvatarURL == "" {
			me.AvatarURL = identity.AvatarURL
		}
		identity = me
	}
	if identity.ID == "" {
		identity.ID = current.ID
	}
	if identity.Email == "" {
		identity.Email = current.Email
	}
	if identity.Name == "" {
		identity.Name = current.Name
	}
	if identity.AvatarURL == "" {
		identity.AvatarURL = current.AvatarURL
	}
	return newSessionUser(identity, s.resolver.Resolve(identity), s.now()), nil
}

func hasRoleSignal(id rbac.Identity) bool {
	return strings.TrimSpace(id.Role) != "" || id.Permissions != nil
}

// keepRole applies display fields only; identity and role stay as they were.
func keepRole(current SessionUser, identity rbac.Identity) SessionUser {
	next := current
	if identity.Name != "" {
		next.Name = identity.Name
	}
	if identity.AvatarURL != "" {
		next.AvatarURL = identity.AvatarURL
	}
	return next
}
