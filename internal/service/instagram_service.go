package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/transfer"
)

const instagramCarouselLimit = 10

type InstagramService interface {
	CarouselPublisher
	JPEGRequirer
}

type instagramService struct {
	cfg    config.Config
	api    *apiClient
	poller *containerPoller
}

func NewInstagramService(cfg config.Config, httpClient *http.Client) InstagramService {
	api := newAPIClient(models.PlatformInstagram, cfg.Meta.APIBaseURL, httpClient)
	return &instagramService{
		cfg: cfg,
		api: api,
		poller: &containerPoller{
			api:      api,
			fields:   "status_code,status",
			attempts: 30,
			interval: 2 * time.Second,
		},
	}
}

func (s *instagramService) Platform() string {
	return models.PlatformInstagram
}

func (s *instagramService) RequiresJPEG() bool {
	return true
}

func (s *instagramService) PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) == 0 {
		return nil, errors.New("no images to publish")
	}
	if err := s.verifyJPEG(ctx, content.ImageURLs[:1]); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("image_url", content.ImageURLs[0])
	form.Set("caption", withCollaborators(content.Caption, content.CollaboratorHandles))

	containerID, err := s.createContainer(ctx, acc, form)
	if err != nil {
		return nil, err
	}

	return s.publishContainer(ctx, acc, containerID)
}

func (s *instagramService) PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) < 2 {
		return s.PublishSingle(ctx, acc, content)
	}

	images := content.ImageURLs
	if len(images) > instagramCarouselLimit {
		slog.Info("instagram carousel truncated", "images", len(images), "limit", instagramCarouselLimit)
		images = images[:instagramCarouselLimit]
	}
	if err := s.verifyJPEG(ctx, images); err != nil {
		return nil, err
	}

	children := make([]string, 0, len(images))
	for _, imageURL := range images {
		form := url.Values{}
		form.Set("image_url", imageURL)
		form.Set("is_carousel_item", "true")

		childID, err := s.createContainer(ctx, acc, form)
		if err != nil {
			return nil, err
		}
		children = append(children, childID)
	}

	form := url.Values{}
	form.Set("media_type", "CAROUSEL")
	form.Set("children", strings.Join(children, ","))
	form.Set("caption", withCollaborators(content.Caption, content.CollaboratorHandles))

	containerID, err := s.createContainer(ctx, acc, form)
	if err != nil {
		return nil, err
	}

	return s.publishContainer(ctx, acc, containerID)
}

// createContainer creates a media container and waits until Instagram has
// finished fetching and processing it.
func (s *instagramService) createContainer(ctx context.Context, acc *models.SocialAccount, form url.Values) (string, error) {
	form.Set("access_token", acc.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, "/"+acc.ProviderAccountID+"/media", form, &result); err != nil {
		return "", fmt.Errorf("failed to create instagram container: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}

	if err := s.poller.wait(ctx, result.ID, acc.AccessToken); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (s *instagramService) publishContainer(ctx context.Context, acc *models.SocialAccount, containerID string) (*PublishResult, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", acc.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, "/"+acc.ProviderAccountID+"/media_publish", form, &result); err != nil {
		return nil, fmt.Errorf("failed to publish instagram media: %w", err)
	}
	if result.ID == "" {
		return nil, errors.New("no media ID returned from Instagram publish")
	}

	return s.permalink(ctx, acc, result.ID), nil
}

func (s *instagramService) permalink(ctx context.Context, acc *models.SocialAccount, mediaID string) *PublishResult {
	query := url.Values{}
	query.Set("fields", "permalink")
	query.Set("access_token", acc.AccessToken)

	var link transfer.GraphPermalinkResponse
	if err := s.api.get(ctx, "/"+mediaID, query, &link); err == nil && link.Permalink != "" {
		return &PublishResult{ExternalID: mediaID, ExternalURL: link.Permalink, URLReliable: true}
	}

	return &PublishResult{
		ExternalID:  mediaID,
		ExternalURL: fmt.Sprintf("https://www.instagram.com/p/%s/", mediaID),
		URLReliable: false,
	}
}

// verifyJPEG sniffs the head of each image when preflight is enabled.
func (s *instagramService) verifyJPEG(ctx context.Context, imageURLs []string) error {
	if !s.cfg.InstagramVerify {
		return nil
	}
	for _, imageURL := range imageURLs {
		head, _, err := s.api.fetch(ctx, imageURL, 261)
		if err != nil {
			return err
		}
		if !filetype.Is(head, "jpg") {
			got := "unknown type"
			if kind, _ := filetype.Match(head); kind.MIME.Value != "" {
				got = kind.MIME.Value
			}
			return fmt.Errorf("instagram requires JPEG images, got %s", got)
		}
	}
	return nil
}

// withCollaborators appends collaborator mentions to the caption, each
// normalized to a single leading "@".
func withCollaborators(caption string, handles []string) string {
	seen := make(map[string]bool)
	var mentions []string
	for _, h := range handles {
		h = strings.TrimLeft(strings.TrimSpace(h), "@")
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		seen[strings.ToLower(h)] = true
		mentions = append(mentions, "@"+h)
	}
	if len(mentions) == 0 {
		return caption
	}
	if caption == "" {
		return strings.Join(mentions, " ")
	}
	return caption + "\n\n" + strings.Join(mentions, " ")
}
