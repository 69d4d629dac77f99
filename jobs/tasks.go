// Package jobs holds the background task definitions and the Asynq worker.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskActivityCleanup is the task type for the audit retention sweep.
	TaskActivityCleanup = "activity:cleanup"
)

// ActivityCleanupPayload parameterises the retention sweep.
type ActivityCleanupPayload struct {
	DaysToKeep int `json:"daysToKeep"`
}

// NewActivityCleanupTask constructs an Asynq task. A non-positive DaysToKeep
// falls back to the configured retention default at execution time.
func NewActivityCleanupTask(daysToKeep int) (*asynq.Task, error) {
	data, err := json.Marshal(ActivityCleanupPayload{DaysToKeep: daysToKeep})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityCleanup, data), nil
}
