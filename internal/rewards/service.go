// Package rewards manages the point triggers members earn rewards from.
package rewards

import (
	"context"
	"log/slog"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Events a trigger can listen to.
var Events = []string{"signup", "profile_completed", "first_deal", "deal_completed", "referral", "review_left"}

// Gateway is the slice of the backend client used for rewards.
type Gateway interface {
	ListRewardTriggers(ctx context.Context, token string) ([]backend.RewardTrigger, error)
	CreateRewardTrigger(ctx context.Context, token string, in backend.NewRewardTrigger) (backend.RewardTrigger, error)
	SetRewardTriggerActive(ctx context.Context, token, id string, active bool) (backend.Result, error)
}

// Service manages reward triggers.
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

// List returns every trigger.
func (s *Service) List(ctx context.Context, token string) ([]backend.RewardTrigger, error) {
	return s.gateway.ListRewardTriggers(ctx, token)
}

// Create registers a trigger. Only roles holding create_rewards may do so.
func (s *Service) Create(ctx context.Context, actor rbac.Principal, token string, in backend.NewRewardTrigger) (backend.RewardTrigger, error) {
	if !actor.Can(rbac.CreateRewards) {
		return backend.RewardTrigger{}, shared.ErrForbidden
	}
	trigger, err := s.gateway.CreateRewardTrigger(ctx, token, in)
	if err != nil {
		return backend.RewardTrigger{}, err
	}
	id := string(trigger.ID)
	if id == "" {
		id = in.Name
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "reward.create",
		Entity:     "reward_trigger",
		EntityID:   id,
		Meta:       map[string]any{"event": in.Event, "points": in.Points},
	})
	return trigger, nil
}

// SetActive switches a trigger on or off.
func (s *Service) SetActive(ctx context.Context, actor rbac.Principal, token, id string, active bool) error {
	if !actor.Can(rbac.ManageRewards) {
		return shared.ErrForbidden
	}
	if _, err := s.gateway.SetRewardTriggerActive(ctx, token, id, active); err != nil {
		return err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "reward.toggle",
		Entity:     "reward_trigger",
		EntityID:   id,
		Meta:       map[string]any{"active": active},
	})
	return nil
}
