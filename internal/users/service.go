package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Gateway is the slice of the backend client used for member management.
type Gateway interface {
	ListUsers(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.User], error)
	GetUser(ctx context.Context, token, id string) (backend.User, error)
	SetUserStatus(ctx context.Context, token, id, status, reason string) (backend.Result, error)
	VerifyUser(ctx context.Context, token, id string) (backend.Result, error)
	UpdateUserProfile(ctx context.Context, token, id string, update backend.ProfileUpdate) (backend.User, error)
	DeleteUser(ctx context.Context, token, id string) (backend.Result, error)
	AdjustBalance(ctx context.Context, token, id string, amount float64, reason string) (backend.Result, error)
}

// Service handles member management rules.
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

// List returns one page of members.
func (s *Service) List(ctx context.Context, token string, filter Filter, page int) (backend.Page[backend.User], error) {
	return s.gateway.ListUsers(ctx, token, backend.ListParams{
		Query:   filter.Query,
		Status:  filter.Status,
		Page:    page,
		PerPage: shared.DefaultPerPage,
	})
}

// Get returns one member.
func (s *Service) Get(ctx context.Context, token, id string) (backend.User, error) {
	return s.gateway.GetUser(ctx, token, id)
}

// SetStatus changes the account status. Banning needs ban_users on top of
// manage_users.
func (s *Service) SetStatus(ctx context.Context, actor rbac.Principal, token, id, status, reason string) error {
	switch status {
	case StatusActive, StatusSuspended:
	case StatusBanned:
		if !actor.Can(rbac.BanUsers) {
			return shared.ErrForbidden
		}
	default:
		return fmt.Errorf("status %q: %w", status, shared.ErrInvalidInput)
	}
	if _, err := s.gateway.SetUserStatus(ctx, token, id, status, reason); err != nil {
		return err
	}
	s.record(ctx, actor, "user.status", id, map[string]any{"status": status, "reason": reason})
	return nil
}

// Verify marks the member as verified.
func (s *Service) Verify(ctx context.Context, actor rbac.Principal, token, id string) error {
	if _, err := s.gateway.VerifyUser(ctx, token, id); err != nil {
		return err
	}
	s.record(ctx, actor, "user.verify", id, nil)
	return nil
}

// UpdateProfile edits the member's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, actor rbac.Principal, token, id string, update backend.ProfileUpdate) (backend.User, error) {
	user, err := s.gateway.UpdateUserProfile(ctx, token, id, update)
	if err != nil {
		return backend.User{}, err
	}
	s.record(ctx, actor, "user.profile", id, map[string]any{"email": update.Email})
	return user, nil
}

// Delete removes the member.
func (s *Service) Delete(ctx context.Context, actor rbac.Principal, token, id string) error {
	if !actor.Can(rbac.DeleteUsers) {
		return shared.ErrForbidden
	}
	if _, err := s.gateway.DeleteUser(ctx, token, id); err != nil {
		return err
	}
	s.record(ctx, actor, "user.delete", id, nil)
	return nil
}

// AdjustBalance credits or debits the member's wallet.
func (s *Service) AdjustBalance(ctx context.Context, actor rbac.Principal, token, id string, amount float64, reason string) error {
	if !actor.Can(rbac.AdjustBalances) {
		return shared.ErrForbidden
	}
	if amount == 0 {
		return fmt.Errorf("amount: %w", shared.ErrInvalidInput)
	}
	if _, err := s.gateway.AdjustBalance(ctx, token, id, amount, reason); err != nil {
		return err
	}
	s.record(ctx, actor, "user.balance", id, map[string]any{"amount": amount, "reason": reason})
	return nil
}

func (s *Service) record(ctx context.Context, actor rbac.Principal, action, id string, meta map[string]any) {
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     action,
		Entity:     "user",
		EntityID:   id,
		Meta:       meta,
	})
}
