package service

import (
	"context"

	"github.com/maheshrc27/social-publisher/internal/models"
)

// Connector runs the authorization-code half of a platform's OAuth flow
// and returns the postable account it discovered.
type Connector interface {
	Platform() string
	AuthCodeURL(state string) string
	Connect(ctx context.Context, code string) (*models.AccountInput, error)
}

// LinkedAccountDiscoverer finds secondary accounts reachable with the
// primary connection's credentials, such as an Instagram Business account
// linked to a Facebook Page.
type LinkedAccountDiscoverer interface {
	DiscoverLinked(ctx context.Context, primary *models.AccountInput) ([]*models.AccountInput, error)
}

// TokenRefresher renews an expiring access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.AccountInput, error)
}

type PublishContent struct {
	Caption             string
	Title               string
	ImageURLs           []string
	CollaboratorHandles []string
}

type PublishResult struct {
	ExternalID  string
	ExternalURL string
	// URLReliable is false when ExternalURL was built from the id rather
	// than returned by the provider.
	URLReliable bool
}

// Publisher posts a single image.
type Publisher interface {
	Platform() string
	PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error)
}

// CarouselPublisher additionally posts several images as one post.
type CarouselPublisher interface {
	Publisher
	PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error)
}

// JPEGRequirer marks publishers that only accept JPEG sources.
type JPEGRequirer interface {
	RequiresJPEG() bool
}

// FlowPlatform maps a platform to the OAuth flow that connects it.
// Instagram Business accounts arrive through the Facebook Page flow.
func FlowPlatform(platform string) string {
	if platform == models.PlatformInstagram {
		return models.PlatformFacebook
	}
	return platform
}
