package rbac

import (
	"log/slog"
	"net/http"
)

// Middleware wires capability checks for HTTP handlers. Denied, when set,
// renders the refusal instead of a bare 403.
type Middleware struct {
	Logger *slog.Logger
	Denied http.Handler
}

// RequireAny ensures the current principal holds at least one capability.
func (m Middleware) RequireAny(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.refuse(w, r)
				return
			}
			if hasAny(p.Permissions, caps) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(r, p, caps)
			m.refuse(w, r)
		})
	}
}

// RequireAll ensures the current principal holds every capability.
func (m Middleware) RequireAll(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				m.refuse(w, r)
				return
			}
			if hasAll(p.Permissions, caps) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(r, p, caps)
			m.refuse(w, r)
		})
	}
}

func (m Middleware) refuse(w http.ResponseWriter, r *http.Request) {
	if m.Denied != nil {
		m.Denied.ServeHTTP(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) deny(r *http.Request, p Principal, caps []Capability) {
	if m.Logger == nil {
		return
	}
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	m.Logger.Warn("capability denied",
		slog.String("path", r.URL.Path),
		slog.String("user", p.Email),
		slog.String("role", p.Role.String()),
		slog.Any("required", names))
}

func hasAny(granted PermissionSet, required []Capability) bool {
	for _, c := range required {
		if granted.Has(c) {
			return true
		}
	}
	return false
}

func hasAll(granted PermissionSet, required []Capability) bool {
	for _, c := range required {
		if !granted.Has(c) {
			return false
		}
	}
	return true
}
