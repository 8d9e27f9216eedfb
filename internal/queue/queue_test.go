package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/social-publisher/internal/service"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	err   error
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type stubOAuth struct {
	service.OAuthService
	err       error
	refreshed []string
}

func (s *stubOAuth) RefreshAccount(ctx context.Context, platform string) error {
	s.refreshed = append(s.refreshed, platform)
	return s.err
}

func TestEnqueueTokenRefresh(t *testing.T) {
	client := &fakeEnqueuer{}

	require.NoError(t, EnqueueTokenRefresh(context.Background(), client, TokenRefreshPayload{Platform: "linkedin"}))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, TaskTypeTokenRefresh, client.tasks[0].Type())

	var payload TokenRefreshPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.Equal(t, "linkedin", payload.Platform)
}

func TestEnqueueTokenRefreshIgnoresDuplicates(t *testing.T) {
	client := &fakeEnqueuer{err: asynq.ErrDuplicateTask}
	assert.NoError(t, EnqueueTokenRefresh(context.Background(), client, TokenRefreshPayload{Platform: "threads"}))

	client.err = errors.New("redis down")
	assert.Error(t, EnqueueTokenRefresh(context.Background(), client, TokenRefreshPayload{Platform: "threads"}))
}

func TestHandleTokenRefreshTask(t *testing.T) {
	oauth := &stubOAuth{}
	q := NewQueue(oauth)

	task := asynq.NewTask(TaskTypeTokenRefresh, []byte(`{"platform":"threads"}`))
	require.NoError(t, q.HandleTokenRefreshTask(context.Background(), task))
	assert.Equal(t, []string{"threads"}, oauth.refreshed)
}

func TestHandleTokenRefreshTaskRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		skipRetry bool
	}{
		{"transient", errors.New("connection reset"), false},
		{"account gone", fmt.Errorf("threads %w", service.ErrAccountNotFound), true},
		{"unreadable token", fmt.Errorf("threads access token: %w", utils.ErrDecrypt), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(&stubOAuth{err: tt.err})
			task := asynq.NewTask(TaskTypeTokenRefresh, []byte(`{"platform":"threads"}`))

			err := q.HandleTokenRefreshTask(context.Background(), task)
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestHandleTokenRefreshTaskBadPayload(t *testing.T) {
	q := NewQueue(&stubOAuth{})
	err := q.HandleTokenRefreshTask(context.Background(), asynq.NewTask(TaskTypeTokenRefresh, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
