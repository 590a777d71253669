// Package settings edits the platform wide switches.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// Gateway is the slice of the backend client used for settings.
type Gateway interface {
	GetSettings(ctx context.Context, token string) (backend.Settings, error)
	UpdateSettings(ctx context.Context, token string, settings backend.Settings) (backend.Result, error)
}

// Service applies settings changes.
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

// Get returns the current settings.
func (s *Service) Get(ctx context.Context, token string) (backend.Settings, error) {
	return s.gateway.GetSettings(ctx, token)
}

// Update writes next. Feature flags only change when the actor holds
// feature_flags; otherwise the current flags are sent back untouched.
func (s *Service) Update(ctx context.Context, actor rbac.Principal, token string, next backend.Settings) error {
	if !actor.Can(rbac.SystemSettings) {
		return shared.ErrForbidden
	}
	fee := next.PlatformFeePercent.Float()
	if fee < 0 || fee > 100 {
		return fmt.Errorf("platform fee %.2f: %w", fee, shared.ErrInvalidInput)
	}
	current, err := s.gateway.GetSettings(ctx, token)
	if err != nil {
		return err
	}
	if !actor.Can(rbac.FeatureFlags) {
		next.FeatureFlags = current.FeatureFlags
	} else {
		next.FeatureFlags = mergeFlags(current.FeatureFlags, next.FeatureFlags)
	}
	if _, err := s.gateway.UpdateSettings(ctx, token, next); err != nil {
		return err
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "settings.update",
		Entity:     "settings",
		EntityID:   "platform",
		Meta:       diff(current, next),
	})
	return nil
}

// mergeFlags keeps only flags the backend already knows about.
func mergeFlags(current, submitted map[string]bool) map[string]bool {
	out := make(map[string]bool, len(current))
	for name := range current {
		out[name] = submitted[name]
	}
	return out
}

func diff(before, after backend.Settings) map[string]any {
	changes := map[string]any{}
	if before.PlatformFeePercent != after.PlatformFeePercent {
		changes["platformFeePercent"] = after.PlatformFeePercent.Float()
	}
	if before.MaintenanceMode != after.MaintenanceMode {
		changes["maintenanceMode"] = after.MaintenanceMode
	}
	if before.SupportEmail != after.SupportEmail {
		changes["supportEmail"] = after.SupportEmail
	}
	for name, on := range after.FeatureFlags {
		if before.FeatureFlags[name] != on {
			changes["flag."+name] = on
		}
	}
	return changes
}

// FlagNames returns the flag names in display order.
func FlagNames(flags map[string]bool) []string {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
