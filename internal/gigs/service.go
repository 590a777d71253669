// Package gigs implements gig moderation.
package gigs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Statuses a gig can be moved to.
var Statuses = []string{"pending", "active", "rejected", "hidden"}

// Gateway is the slice of the backend client used for gigs.
type Gateway interface {
	ListGigs(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.Gig], error)
	UpdateGig(ctx context.Context, token, id string, update backend.GigUpdate) (backend.Result, error)
}

// Service applies moderation rules.
type Service struct {
	gateway Gateway
	audit   shared.AuditRecorder
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(gateway Gateway, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, audit: audit, logger: logger}
}

// List returns one page of gigs.
func (s *Service) List(ctx context.Context, token, query, status string, page int) (backend.Page[backend.Gig], error) {
	return s.gateway.ListGigs(ctx, token, backend.ListParams{Query: query, Status: status, Page: page, PerPage: shared.DefaultPerPage})
}

// Moderate applies a status and/or flag change with an optional note.
func (s *Service) Moderate(ctx context.Context, actor rbac.Principal, token, id string, update backend.GigUpdate) error {
	if update.Status == "" && update.Flagged == nil {
		return fmt.Errorf("empty moderation: %w", shared.ErrInvalidInput)
	}
	if update.Status != "" && !valid(update.Status) {
		return fmt.Errorf("gig status %q: %w", update.Status, shared.ErrInvalidInput)
	}
	if _, err := s.gateway.UpdateGig(ctx, token, id, update); err != nil {
		return err
	}
	meta := map[string]any{"status": update.Status, "note": update.Note}
	if update.Flagged != nil {
		meta["flagged"] = *update.Flagged
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "gig.moderate",
		Entity:     "gig",
		EntityID:   id,
		Meta:       meta,
	})
	return nil
}

func valid(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
