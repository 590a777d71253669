// Package profile lets the logged-in staff member edit their own account.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"

	"github.com/source-impact/admin-dashboard/internal/auth"
	"github.com/source-impact/admin-dashboard/internal/backend"
	"github.com/source-impact/admin-dashboard/internal/rbac"
	"github.com/source-impact/admin-dashboard/internal/shared"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 2 << 20

var avatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Gateway is the slice of the backend client used for the own profile.
type Gateway interface {
	UpdateOwnProfile(ctx context.Context, token string, update backend.ProfileUpdate) (rbac.Identity, error)
	UploadAvatar(ctx context.Context, token string, file backend.FilePart) (string, error)
}

// Refresher rebuilds the session user after a change.
type Refresher interface {
	Refresh(ctx context.Context, token string, current auth.SessionUser, identity rbac.Identity) (auth.SessionUser, error)
}

// Service applies profile changes and returns the refreshed session user.
type Service struct {
	gateway   Gateway
	refresher Refresher
	audit     shared.AuditRecorder
	logger    *slog.Logger
}

// NewService builds Service instance.
func NewService(gateway Gateway, refresher Refresher, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gateway: gateway, refresher: refresher, audit: audit, logger: logger}
}

// Update saves name, email and phone.
func (s *Service) Update(ctx context.Context, token string, current auth.SessionUser, update backend.ProfileUpdate) (auth.SessionUser, error) {
	update.AvatarURL = ""
	identity, err := s.gateway.UpdateOwnProfile(ctx, token, update)
	if err != nil {
		return current, err
	}
	if identity.Name == "" {
		identity.Name = update.Name
	}
	next, err := s.refresh(ctx, token, current, identity)
	if err != nil {
		return current, err
	}
	s.record(ctx, current, "profile.update")
	return next, nil
}

// UploadAvatar checks the image, uploads it and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, token string, current auth.SessionUser, filename string, r io.Reader) (auth.SessionUser, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return current, fmt.Errorf("read avatar: %w", err)
	}
	if len(data) == 0 || len(data) > MaxAvatarBytes {
		return current, fmt.Errorf("avatar size: %w", shared.ErrInvalidInput)
	}
	kind := mimetype.Detect(data)
	if !mimetype.EqualsAny(kind.String(), avatarTypes...) {
		return current, fmt.Errorf("avatar type %s: %w", kind.String(), shared.ErrInvalidInput)
	}
	url, err := s.gateway.UploadAvatar(ctx, token, backend.FilePart{
		Field:       "avatar",
		Filename:    filename,
		ContentType: kind.String(),
		Reader:      bytes.NewReader(data),
	})
	if err != nil {
		return current, err
	}
	identity, err := s.gateway.UpdateOwnProfile(ctx, token, backend.ProfileUpdate{AvatarURL: url})
	if err != nil {
		return current, err
	}
	if identity.AvatarURL == "" {
		identity.AvatarURL = url
	}
	next, err := s.refresh(ctx, token, current, identity)
	if err != nil {
		return current, err
	}
	next.AvatarURL = url
	s.record(ctx, current, "profile.avatar")
	return next, nil
}

func (s *Service) refresh(ctx context.Context, token string, current auth.SessionUser, identity rbac.Identity) (auth.SessionUser, error) {
	if s.refresher == nil {
		return current, nil
	}
	return s.refresher.Refresh(ctx, token, current, identity)
}

func (s *Service) record(ctx context.Context, user auth.SessionUser, action string) {
	id := user.ID
	if id == "" {
		id = user.Email
	}
	shared.RecordAudit(ctx, s.audit, s.logger, shared.AuditLog{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Action:     action,
		Entity:     "admin",
		EntityID:   id,
	})
}
