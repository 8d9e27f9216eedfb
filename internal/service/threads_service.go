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

	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/transfer"
	"golang.org/x/oauth2"
)

const (
	threadsAPIVersion    = "/v1.0"
	threadsCarouselLimit = 20
)

type ThreadsService interface {
	Connector
	TokenRefresher
	CarouselPublisher
}

type threadsService struct {
	cfg    config.Config
	oauth  *oauth2.Config
	api    *apiClient
	poller *containerPoller
}

func NewThreadsService(cfg config.Config, httpClient *http.Client) ThreadsService {
	api := newAPIClient(models.PlatformThreads, cfg.Threads.APIBaseURL, httpClient)
	return &threadsService{
		cfg:   cfg,
		oauth: metaOAuthConfig(cfg.Threads),
		api:   api,
		poller: &containerPoller{
			api:      api,
			pathPref: threadsAPIVersion,
			fields:   "status,error_message",
			attempts: 30,
			interval: 2 * time.Second,
		},
	}
}

func (s *threadsService) Platform() string {
	return models.PlatformThreads
}

func (s *threadsService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *threadsService) Connect(ctx context.Context, code string) (*models.AccountInput, error) {
	shortLived, err := s.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.api.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("threads code exchange failed: %w", err)
	}

	query := url.Values{}
	query.Set("grant_type", "th_exchange_token")
	query.Set("client_secret", s.cfg.Threads.ClientSecret)
	query.Set("access_token", shortLived.AccessToken)

	var longLived transfer.LongLivedTokenResponse
	if err := s.api.get(ctx, "/access_token", query, &longLived); err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}
	if longLived.AccessToken == "" {
		return nil, errors.New("threads returned an empty long-lived token")
	}

	profileQuery := url.Values{}
	profileQuery.Set("fields", "id,username,name")
	profileQuery.Set("access_token", longLived.AccessToken)

	var profile transfer.ThreadsProfile
	if err := s.api.get(ctx, threadsAPIVersion+"/me", profileQuery, &profile); err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
			return nil, &OAuthError{Reason: ReasonNoAccount, Err: err}
		}
		return nil, fmt.Errorf("failed to load threads profile: %w", err)
	}
	if profile.ID == "" {
		return nil, &OAuthError{Reason: ReasonNoAccount}
	}

	scopes := s.cfg.Threads.Scopes
	if raw, ok := shortLived.Extra("scope").(string); ok && raw != "" {
		scopes = splitScopes(raw)
	}

	return &models.AccountInput{
		Platform:             models.PlatformThreads,
		ProviderAccountID:    profile.ID,
		ProviderAccountName:  profile.Username,
		AccessToken:          longLived.AccessToken,
		AccessTokenExpiresAt: GetExpiresAt(longLived.ExpiresIn),
		Scopes:               scopes,
		Metadata: map[string]string{
			"name": profile.Name,
		},
	}, nil
}

// RefreshToken extends a long-lived Threads token. Threads issues no
// separate refresh token; the access token refreshes itself.
func (s *threadsService) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.AccountInput, error) {
	query := url.Values{}
	query.Set("grant_type", "th_refresh_token")
	query.Set("access_token", acc.AccessToken)

	var result transfer.LongLivedTokenResponse
	if err := s.api.get(ctx, "/refresh_access_token", query, &result); err != nil {
		return nil, fmt.Errorf("threads token refresh failed: %w", err)
	}
	if result.AccessToken == "" {
		return nil, errors.New("threads returned an empty token")
	}

	input := accountInputFrom(acc)
	input.AccessToken = result.AccessToken
	input.AccessTokenExpiresAt = GetExpiresAt(result.ExpiresIn)
	return input, nil
}

func (s *threadsService) PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) == 0 {
		return nil, errors.New("no images to publish")
	}

	form := url.Values{}
	form.Set("media_type", "IMAGE")
	form.Set("image_url", content.ImageURLs[0])
	form.Set("text", content.Caption)

	containerID, err := s.createContainer(ctx, acc, form)
	if err != nil {
		return nil, err
	}
	return s.publishContainer(ctx, acc, containerID)
}

func (s *threadsService) PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) < 2 {
		return s.PublishSingle(ctx, acc, content)
	}

	images := content.ImageURLs
	if len(images) > threadsCarouselLimit {
		slog.Info("threads carousel truncated", "images", len(images), "limit", threadsCarouselLimit)
		images = images[:threadsCarouselLimit]
	}

	children := make([]string, 0, len(images))
	for _, imageURL := range images {
		form := url.Values{}
		form.Set("media_type", "IMAGE")
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
	form.Set("text", content.Caption)

	containerID, err := s.createContainer(ctx, acc, form)
	if err != nil {
		return nil, err
	}
	return s.publishContainer(ctx, acc, containerID)
}

func (s *threadsService) createContainer(ctx context.Context, acc *models.SocialAccount, form url.Values) (string, error) {
	form.Set("access_token", acc.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, threadsAPIVersion+"/"+acc.ProviderAccountID+"/threads", form, &result); err != nil {
		return "", fmt.Errorf("failed to create threads container: %w", err)
	}
	if result.ID == "" {
		return "", errors.New("no container id returned from threads")
	}

	if err := s.poller.wait(ctx, result.ID, acc.AccessToken); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (s *threadsService) publishContainer(ctx context.Context, acc *models.SocialAccount, containerID string) (*PublishResult, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", acc.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, threadsAPIVersion+"/"+acc.ProviderAccountID+"/threads_publish", form, &result); err != nil {
		return nil, fmt.Errorf("failed to publish thread: %w", err)
	}
	if result.ID == "" {
		return nil, errors.New("no post id returned from threads")
	}

	query := url.Values{}
	query.Set("fields", "permalink")
	query.Set("access_token", acc.AccessToken)

	var link transfer.GraphPermalinkResponse
	if err := s.api.get(ctx, threadsAPIVersion+"/"+result.ID, query, &link); err == nil && link.Permalink != "" {
		return &PublishResult{ExternalID: result.ID, ExternalURL: link.Permalink, URLReliable: true}, nil
	}

	return &PublishResult{
		ExternalID:  result.ID,
		ExternalURL: fmt.Sprintf("https://www.threads.net/@%s/post/%s", acc.ProviderAccountName, result.ID),
		URLReliable: false,
	}, nil
}
