package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/trackhub/trackhub/internal/activity"
)

// ActivityCleanupJob deletes audit entries past the retention window.
type ActivityCleanupJob struct {
	service *activity.Service
	logger  *slog.Logger
}

// NewActivityCleanupJob constructs the retention sweep job.
func NewActivityCleanupJob(service *activity.Service, logger *slog.Logger) *ActivityCleanupJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityCleanupJob{service: service, logger: logger}
}

// Handle processes TaskActivityCleanup tasks.
func (j *ActivityCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ActivityCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	removed, err := j.service.Cleanup(ctx, payload.DaysToKeep)
	if err != nil {
		j.logger.Error("activity cleanup", slog.Any("error", err))
		return err
	}
	j.logger.Info("activity cleanup done", slog.Int64("removed", removed))
	return nil
}
