// Package notifications sends announcements to members and lists past ones.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
	"github.com/source-impact/admin-dashboard/jobs"
)

// Audiences a notification can target. AudienceUser needs a user id.
const (
	AudienceAll     = "all"
	AudienceBuyers  = "buyers"
	AudienceSellers = "sellers"
	AudienceUser    = "user"
)

// Audiences lists the choices offered by the form.
var Audiences = []string{AudienceAll, AudienceBuyers, AudienceSellers, AudienceUser}

// Gateway is the slice of the backend client used for notifications.
type Gateway interface {
	ListNotifications(ctx context.Context, token string, params backend.ListParams) (backend.Page[backend.Notification], error)
	SendNotification(ctx context.Context, token string, n backend.OutgoingNotification) (backend.Result, error)
}

// Enqueuer hands a notification to the background worker.
type Enqueuer interface {
	EnqueueBroadcast(ctx context.Context, payload jobs.BroadcastPayload) error
}

// Outcome tells the caller how a notification left the dashboard.
type Outcome int

// Delivery outcomes.
const (
	Sent Outcome = iota
	Queued
)

// Service validates and dispatches notifications.
type Service struct {
	gateway  Gateway
	enqueuer Enqueuer
	audit    shared.AuditRecorder
	logger   *slog.Logger
}

// NewService builds Service instance. enqueuer may be nil, in which case
// notifications are sent inline.
func NewService(gateway Gateway, enqueuer Enqueuer, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, enqueuer: enqueuer, audit: audit, logger: logger}
}

// List returns one page of sent notifications.
func (s *Service) List(ctx context.Context, token string, page int) (backend.Page[backend.Notification], error) {
	return s.gateway.ListNotifications(ctx, token, backend.ListParams{Page: page, PerPage: shared.DefaultPerPage})
}

// Send queues the notification, or sends it directly when no queue is
// configured or the queue is unavailable.
func (s *Service) Send(ctx context.Context, actor rbac.Principal, token string, n backend.OutgoingNotification) (Outcome, error) {
	if !actor.Can(rbac.ManageSupport) {
		return Sent, shared.ErrForbidden
	}
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	n.UserID = strings.TrimSpace(n.UserID)
	if n.Audience != AudienceUser {
		n.UserID = ""
	}
	if err := validate(n); err != nil {
		return Sent, err
	}

	outcome := Sent
	queued := false
	if s.enqueuer != nil {
		err := s.enqueuer.EnqueueBroadcast(ctx, jobs.BroadcastPayload{
			Token:    token,
			Title:    n.Title,
			Message:  n.Message,
			Audience: n.Audience,
			UserID:   n.UserID,
			Actor:    actor.Email,
		})
		if err == nil {
			queued = true
			outcome = Queued
		} else {
			s.logger.Warn("enqueue broadcast failed, sending inline", slog.Any("error", err))
		}
	}
	if !queued {
		if _, err := s.gateway.SendNotification(ctx, token, n); err != nil {
			return Sent, err
		}
	}

	target := n.Audience
	if n.UserID != "" {
		target = n.UserID
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    actor.UserID,
		ActorEmail: actor.Email,
		Action:     "notification.send",
		Entity:     "notification",
		EntityID:   target,
		Meta:       map[string]any{"title": n.Title, "queued": queued},
	})
	return outcome, nil
}

func validate(n backend.OutgoingNotification) error {
	if n.Title == "" || n.Message == "" {
		return fmt.Errorf("title and message: %w", shared.ErrInvalidInput)
	}
	if len(n.Title) > 120 || len(n.Message) > 2000 {
		return fmt.Errorf("notification too long: %w", shared.ErrInvalidInput)
	}
	known := false
	for _, a := range Audiences {
		if a == n.Audience {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("audience %q: %w", n.Audience, shared.ErrInvalidInput)
	}
	if n.Audience == AudienceUser && n.UserID == "" {
		return fmt.Errorf("user id: %w", shared.ErrInvalidInput)
	}
	return nil
}
