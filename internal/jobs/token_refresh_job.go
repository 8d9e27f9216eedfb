package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/social-publisher/internal/queue"
	"github.com/maheshrc27/social-publisher/internal/service"
)

type TokenRefreshJob struct {
	accounts service.AccountStore
	client   queue.Enqueuer
	window   time.Duration
}

func NewTokenRefreshJob(accounts service.AccountStore, client queue.Enqueuer, window time.Duration) *TokenRefreshJob {
	return &TokenRefreshJob{
		accounts: accounts,
		client:   client,
		window:   window,
	}
}

// RefreshTokens queues a refresh for every active account whose access
// token expires inside the window. The refresh itself runs on the worker.
func (c *TokenRefreshJob) RefreshTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	accounts, err := c.accounts.ListExpiring(ctx, c.window)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		err := queue.EnqueueTokenRefresh(ctx, c.client, queue.TokenRefreshPayload{Platform: acc.Platform})
		if err != nil {
			slog.Info("unable to queue token refresh", "platform", acc.Platform, "error", err.Error())
		}
	}
}
