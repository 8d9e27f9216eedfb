package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/maheshrc27/social-publisher/internal/transfer"
)

// containerPoller waits for a Meta media container to finish processing
// before it can be published.
type containerPoller struct {
	api      *apiClient
	pathPref string
	fields   string
	attempts int
	interval time.Duration
}

func (p *containerPoller) wait(ctx context.Context, containerID, accessToken string) error {
	query := url.Values{}
	query.Set("fields", p.fields)
	query.Set("access_token", accessToken)

	for attempt := 0; attempt < p.attempts; attempt++ {
		var status transfer.ContainerStatusResponse
		if err := p.api.get(ctx, p.pathPref+"/"+containerID, query, &status); err != nil {
			return fmt.Errorf("failed to check container %s: %w", containerID, err)
		}

		code := status.StatusCode
		if code == "" {
			code = status.Status
		}

		switch code {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			msg := status.ErrorMessage
			if msg == "" {
				msg = status.Status
			}
			return fmt.Errorf("container %s %s: %s", containerID, code, msg)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.interval):
		}
	}

	return fmt.Errorf("container %s not ready after %d checks", containerID, p.attempts)
}
