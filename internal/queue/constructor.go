package queue

import (
	"github.com/maheshrc27/social-publisher/internal/service"
)

type Queue struct {
	oauth service.OAuthService
}

func NewQueue(oauth service.OAuthService) *Queue {
	return &Queue{
		oauth: oauth,
	}
}

const TaskTypeTokenRefresh = "token:refresh"

type TokenRefreshPayload struct {
	Platform string `json:"platform"`
}
