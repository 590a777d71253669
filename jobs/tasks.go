package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/source-impact/admin-dashboard/internal/backend"
	jobmetrics "github.com/source-impact/admin-dashboard/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBroadcast delivers a staff notification through the backend.
	TaskTypeBroadcast = "notifications:broadcast"
)

// broadcastTimeout bounds one delivery attempt.
const broadcastTimeout = time.Minute

// BroadcastPayload describes one notification to deliver. Token is the
// bearer token of the staff member who queued it; failed tasks keep it in
// the archive until they are deleted.
type BroadcastPayload struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Audience string `json:"audience"`
	UserID   string `json:"userId,omitempty"`
	Actor    string `json:"actor"`
}

// NewBroadcastTask constructs an Asynq task.
func NewBroadcastTask(payload BroadcastPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBroadcast, data, broadcastOptions()...), nil
}

// broadcastOptions never retries: a failure after a partial fan-out would
// send the announcement twice.
func broadcastOptions() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(broadcastTimeout),
	}
}

// Sender delivers notifications to members.
type Sender interface {
	SendNotification(ctx context.Context, token string, n backend.OutgoingNotification) (backend.Result, error)
}

// BroadcastJob processes TaskTypeBroadcast tasks.
type BroadcastJob struct {
	sender  Sender
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewBroadcastJob builds the job handler.
func NewBroadcastJob(sender Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *BroadcastJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BroadcastJob{sender: sender, logger: logger, metrics: metrics}
}

// Handle sends the notification. No failure is retried.
func (j *BroadcastJob) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := j.metrics.Track(TaskTypeBroadcast)
	var payload BroadcastPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(fmt.Errorf("decode broadcast: %v: %w", err, asynq.SkipRetry))
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Message) == "" {
		return tracker.End(fmt.Errorf("empty broadcast: %w", asynq.SkipRetry))
	}
	_, err := j.sender.SendNotification(ctx, payload.Token, backend.OutgoingNotification{
		Title:    payload.Title,
		Message:  payload.Message,
		Audience: payload.Audience,
		UserID:   payload.UserID,
	})
	if err != nil {
		j.logger.Warn("broadcast failed",
			slog.String("actor", payload.Actor),
			slog.String("audience", payload.Audience),
			slog.Any("error", err))
		return tracker.End(fmt.Errorf("send broadcast: %w: %w", err, asynq.SkipRetry))
	}
	j.metrics.AddDelivery(payload.Audience)
	j.logger.Info("broadcast delivered",
		slog.String("actor", payload.Actor),
		slog.String("audience", payload.Audience))
	return tracker.End(nil)
}
