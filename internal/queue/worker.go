package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/social-publisher/internal/service"
	"github.com/maheshrc27/social-publisher/pkg/utils"
)

func (q *Queue) HandleTokenRefreshTask(ctx context.Context, task *asynq.Task) error {
	var payload TokenRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid token refresh payload: %v: %w", err, asynq.SkipRetry)
	}

	err := q.oauth.RefreshAccount(ctx, payload.Platform)
	if err == nil {
		return nil
	}

	slog.Info("token refresh failed", "platform", payload.Platform, "error", err.Error())

	// Retrying cannot help once the account is gone or its ciphertext is unreadable.
	if errors.Is(err, service.ErrAccountNotFound) || errors.Is(err, utils.ErrDecrypt) || errors.Is(err, utils.ErrCipherKey) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// Register adds the queue's handlers to mux.
func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeTokenRefresh, q.HandleTokenRefreshTask)
}
