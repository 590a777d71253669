package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in admin_audit_logs.
type AuditLog struct {
	ActorID    string
	ActorEmail string
	Action     string
	Entity     string
	EntityID   string
	Meta       map[string]any
	At         time.Time
}

// AuditRecorder records successful admin mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger writes records into admin_audit_logs, or into the
// structured log when no database is configured.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger. pool may be nil.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.At.IsZero() {
		log.At = time.Now().UTC()
	}
	if l.pool == nil {
		if l.logger != nil {
			l.logger.Info("audit",
				slog.String("actor", log.ActorEmail),
				slog.String("action", log.Action),
				slog.String("entity", log.Entity),
				slog.String("entity_id", log.EntityID),
				slog.Any("meta", log.Meta))
		}
		return nil
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO admin_audit_logs (id, actor_id, actor_email, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), log.ActorID, log.ActorEmail, log.Action, log.Entity, log.EntityID, metaJSON, log.At)
	return err
}

// RecordAudit records entry on rec and logs failures. A failed audit write
// never fails the mutation it describes.
func RecordAudit(ctx context.Context, rec AuditRecorder, logger *slog.Logger, entry AuditLog) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, entry); err != nil && logger != nil {
		logger.Warn("audit record failed", slog.String("action", entry.Action), slog.Any("error", err))
	}
}
