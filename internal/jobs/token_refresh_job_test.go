package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/queue"
	"github.com/maheshrc27/social-publisher/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	service.AccountStore
	err      error
	accounts []*models.SocialAccount
	within   time.Duration
}

func (s *stubStore) ListExpiring(ctx context.Context, within time.Duration) ([]*models.SocialAccount, error) {
	s.within = within
	return s.accounts, s.err
}

type recordingEnqueuer struct {
	failFor   string
	platforms []string
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	var payload queue.TokenRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, err
	}
	if payload.Platform == r.failFor {
		return nil, errors.New("redis unavailable")
	}
	r.platforms = append(r.platforms, payload.Platform)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestRefreshTokensQueuesExpiringAccounts(t *testing.T) {
	store := &stubStore{accounts: []*models.SocialAccount{
		{Platform: models.PlatformLinkedIn},
		{Platform: models.PlatformFacebook},
		{Platform: models.PlatformThreads},
	}}
	client := &recordingEnqueuer{failFor: models.PlatformFacebook}

	NewTokenRefreshJob(store, client, 72*time.Hour).RefreshTokens()

	assert.Equal(t, 72*time.Hour, store.within)
	assert.Equal(t, []string{models.PlatformLinkedIn, models.PlatformThreads}, client.platforms)
}

func TestRefreshTokensStopsOnListError(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	client := &recordingEnqueuer{}

	NewTokenRefreshJob(store, client, time.Hour).RefreshTokens()
	require.Empty(t, client.platforms)
}
