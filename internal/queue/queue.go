package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueTokenRefresh schedules a refresh for one platform. A refresh
// already queued for the same platform is not duplicated.
func EnqueueTokenRefresh(ctx context.Context, client Enqueuer, payload TokenRefreshPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeTokenRefresh, taskPayload)

	_, err = client.EnqueueContext(ctx, task,
		asynq.Unique(30*time.Minute),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Info("token refresh already queued", "platform", payload.Platform)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("token refresh queued", "platform", payload.Platform)
	return nil
}
