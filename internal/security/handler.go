// Package security shows staff what their role allows.
package security

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/source-impact/admin-dashboard/internal/platform/httpx"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/view"
)

// Handler serves the capability matrix and the session summary.
type Handler struct {
	logger *slog.Logger
	pages  *view.Responder
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, pages *view.Responder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, pages: pages}
}

// MountRoutes registers the security page.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.matrix)
}

// Session reports the logged-in principal as JSON.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionView{
		ID:           p.UserID,
		Email:        p.Email,
		Name:         p.Name,
		Role:         p.Role,
		RoleLabel:    p.Role.Label(),
		Capabilities: p.Permissions.Granted(),
		Permissions:  p.Permissions,
	})
}

type sessionView struct {
	ID           string             `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	Role         rbac.Role          `json:"role"`
	RoleLabel    string             `json:"roleLabel"`
	Capabilities []string           `json:"capabilities"`
	Permissions  rbac.PermissionSet `json:"permissions"`
}

type page struct {
	Rows    []rbac.CapabilityRow
	Granted int
	Total   int
}

func (h *Handler) matrix(w http.ResponseWriter, r *http.Request) {
	p, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		h.pages.Logout(w, r)
		return
	}
	rows := rbac.Matrix(p.Role)
	granted := 0
	for _, row := range rows {
		if row.Granted {
			granted++
		}
	}
	h.pages.Render(w, r, "pages/security.html", "Security", page{Rows: rows, Granted: granted, Total: len(rows)}, http.StatusOK)
}
