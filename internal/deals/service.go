// Package deals implements the deal oversight pages.
package deals

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Statuses staff may move a deal to.
var Statuses = []string{"pending", "active", "in_progress", "completed", "cancelled", "disputed"}

// Gateway is the slice of the backend client used for deals.
type Gateway interface {
	ListDeals(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.Deal], error)
	GetDeal(ctx context.Context, token, id string) (backend.Deal, error)
	SetDealStatus(ctx context.Context, token, id, status string) (backend.Result, error)
	AdjustDealAmount(ctx context.Context, token, id string, amount float64, reason string) (backend.Result, error)
	DeleteDeal(ctx context.Context, token, id string) (backend.Result, error)
}

// Service applies deal rules before calling the backend.
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

// List returns one page of deals.
func (s *Service) List(ctx context.Context, token, query, status string, page int) (backend.Page[backend.Deal], error) {
	return s.gateway.ListDeals(ctx, token, backend.ListParams{Query: query, Status: status, Page: page, PerPage: shared.DefaultPerPage})
}

// Get returns one deal.
func (s *Service) Get(ctx context.Context, token, id string) (backend.Deal, error) {
	return s.gateway.GetDeal(ctx, token, id)
}

// SetStatus moves the deal to status.
func (s *Service) SetStatus(ctx context.Context, actor rbac.Principal, token, id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("deal status %q: %w", status, shared.ErrInvalidInput)
	}
	if _, err := s.gateway.SetDealStatus(ctx, token, id, status); err != nil {
		return err
	}
	s.record(ctx, actor, "deal.status", id, map[string]any{"status": status})
	return nil
}

// AdjustAmount overrides the agreed amount.
func (s *Service) AdjustAmount(ctx context.Context, actor rbac.Principal, token, id string, amount float64, reason string) error {
	if !actor.Can(rbac.AdjustDealAmounts) {
		return shared.ErrForbidden
	}
	if amount <= 0 {
		return fmt.Errorf("amount: %w", shared.ErrInvalidInput)
	}
	if _, err := s.gateway.AdjustDealAmount(ctx, token, id, amount, reason); err != nil {
		return err
	}
	s.record(ctx, actor, "deal.amount", id, map[string]any{"amount": amount, "reason": reason})
	return nil
}

// Delete removes the deal.
func (s *Service) Delete(ctx context.Context, actor rbac.Principal, token, id string) error {
	if !actor.Can(rbac.DeleteDeals) {
		return shared.ErrForbidden
	}
	if _, err := s.gateway.DeleteDeal(ctx, token, id); err != nil {
		return err
	}
	s.record(ctx, actor, "deal.delete", id, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor rbac.Principal, action, id string, meta map[string]any) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     action,
		Entity:     "deal",
		EntityID:   id,
		Meta:       meta,
	})
}

func validStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
