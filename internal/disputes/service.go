// Package disputes lets support staff settle complaints raised on deals.
package disputes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Outcomes staff may record.
var Outcomes = []string{"refund_buyer", "pay_seller", "split", "dismissed"}

// Statuses used by the list filter.
var Statuses = []string{"open", "investigating", "resolved", "closed"}

// Gateway is the slice of the backend client used for disputes.
type Gateway interface {
	ListDisputes(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.Dispute], error)
	ResolveDispute(ctx context.Context, token, id string, decision backend.DisputeResolution) (backend.Result, error)
}

// Service resolves disputes.
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

// List returns one page of disputes.
func (s *Service) List(ctx context.Context, token, status string, page int) (backend.Page[backend.Dispute], error) {
	return s.gateway.ListDisputes(ctx, token, backend.ListParams{Status: status, Page: page, PerPage: shared.DefaultPerPage})
}

// Resolve records an outcome with a note for the parties.
func (s *Service) Resolve(ctx context.Context, actor rbac.Principal, token, id string, decision backend.DisputeResolution) error {
	if !actor.Can(rbac.ManageSupport) {
		return shared.ErrForbidden
	}
	decision.Note = strings.TrimSpace(decision.Note)
	if !validOutcome(decision.Outcome) {
		return fmt.Errorf("dispute outcome %q: %w", decision.Outcome, shared.ErrInvalidInput)
	}
	if decision.Note == "" {
		return fmt.Errorf("resolution note: %w", shared.ErrInvalidInput)
	}
	if _, err := s.gateway.ResolveDispute(ctx, token, id, decision); err != nil {
		return err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "dispute.resolve",
		Entity:     "dispute",
		EntityID:   id,
		Meta:       map[string]any{"outcome": decision.Outcome},
	})
	return nil
}

func validOutcome(outcome string) bool {
	for _, o := range Outcomes {
		if o == outcome {
			return true
		}
	}
	return false
}
