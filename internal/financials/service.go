// Package financials shows escrow records and lets super admins force a
// release.
package financials

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Gateway is the slice of the backend client used for escrow.
type Gateway interface {
	ListEscrowJobs(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.EscrowJob], error)
	ReleaseEscrow(ctx context.Context, token, id, reason string) (backend.Result, error)
}

// Summary totals the escrow records of one page.
type Summary struct {
	Held     float64
	Released float64
	Count    int
}

// Service wraps escrow operations.
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

// List returns one page of escrow records with its totals.
func (s *Service) List(ctx context.Context, token, status string, page int) (backend.Page[backend.EscrowJob], Summary, error) {
	result, err := s.gateway.ListEscrowJobs(ctx, token, backend.ListParams{Status: status, Page: page, PerPage: shared.DefaultPerPage})
	if err != nil {
		return backend.Page[backend.EscrowJob]{}, Summary{}, err
	}
	return result, Summarize(result.Items), nil
}

// Summarize totals held and released amounts.
func Summarize(jobs []backend.EscrowJob) Summary {
	var sum Summary
	for _, job := range jobs {
		sum.Count++
		if strings.EqualFold(job.Status, "released") {
			sum.Released += job.Amount.Float()
			continue
		}
		if job.Releasable() {
			sum.Held += job.Amount.Float()
		}
	}
	return sum
}

// Release forces the held funds to the payee.
func (s *Service) Release(ctx context.Context, actor rbac.Principal, token, id, reason string) error {
	if !actor.Can(rbac.ForceReleaseEscrow) {
		return shared.ErrForbidden
	}
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("reason: %w", shared.ErrInvalidInput)
	}
	if _, err := s.gateway.ReleaseEscrow(ctx, token, id, reason); err != nil {
		return err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "escrow.release",
		Entity:     "escrow_job",
		EntityID:   id,
		Meta:       map[string]any{"reason": reason},
	})
	return nil
}
