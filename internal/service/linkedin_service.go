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

const linkedInOrganizationURN = "urn:li:organization:"

type LinkedInService interface {
	Connector
	TokenRefresher
	CarouselPublisher
}

type linkedinService struct {
	cfg   config.Config
	oauth *oauth2.Config
	api   *apiClient
}

func NewLinkedInService(cfg config.Config, httpClient *http.Client) LinkedInService {
	api := newAPIClient(models.PlatformLinkedIn, cfg.LinkedIn.APIBaseURL, httpClient)
	return &linkedinService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedIn.ClientID,
			ClientSecret: cfg.LinkedIn.ClientSecret,
			RedirectURL:  cfg.LinkedIn.RedirectURI,
			Scopes:       cfg.LinkedIn.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.LinkedIn.AuthURL,
				TokenURL:  cfg.LinkedIn.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		api: api,
	}
}

func (s *linkedinService) Platform() string {
	return models.PlatformLinkedIn
}

func (s *linkedinService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

func (s *linkedinService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.api.http)
}

func (s *linkedinService) headers(accessToken string) map[string]string {
	return map[string]string{
		"Authorization":             "Bearer " + accessToken,
		"LinkedIn-Version":          s.cfg.LinkedInAPIVersion,
		"X-Restli-Protocol-Version": "2.0.0",
	}
}

func (s *linkedinService) Connect(ctx context.Context, code string) (*models.AccountInput, error) {
	token, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("linkedin code exchange failed: %w", err)
	}

	orgURN, err := s.firstAdministeredOrganization(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	orgID := strings.TrimPrefix(orgURN, linkedInOrganizationURN)
	metadata := map[string]string{"organization_urn": orgURN}

	var name string
	var org transfer.LinkedInOrganization
	if _, err := s.api.do(ctx, apiRequest{
		method:  http.MethodGet,
		path:    "/rest/organizations/" + orgID,
		headers: s.headers(token.AccessToken),
	}, &org); err != nil {
		slog.Info("linkedin organization lookup failed", "organization", orgURN, "err", err)
	} else {
		name = org.LocalizedName
		if org.VanityName != "" {
			metadata["vanity_name"] = org.VanityName
		}
	}

	input := &models.AccountInput{
		Platform:              models.PlatformLinkedIn,
		ProviderAccountID:     orgID,
		ProviderAccountName:   name,
		OrganizationID:        orgURN,
		AccessToken:           token.AccessToken,
		RefreshToken:          token.RefreshToken,
		AccessTokenExpiresAt:  expiresAtFromTime(token.Expiry),
		RefreshTokenExpiresAt: GetExpiresAt(extraInt64(token.Extra("refresh_token_expires_in"))),
		Scopes:                s.grantedScopes(token),
		Metadata:              metadata,
	}

	return input, nil
}

func (s *linkedinService) grantedScopes(token *oauth2.Token) []string {
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		return splitScopes(raw)
	}
	return s.cfg.LinkedIn.Scopes
}

func (s *linkedinService) firstAdministeredOrganization(ctx context.Context, accessToken string) (string, error) {
	query := url.Values{}
	query.Set("q", "roleAssignee")
	query.Set("role", "ADMINISTRATOR")
	query.Set("state", "APPROVED")

	var acls transfer.LinkedInOrganizationAclsResponse
	if _, err := s.api.do(ctx, apiRequest{
		method:  http.MethodGet,
		path:    "/rest/organizationAcls",
		query:   query,
		headers: s.headers(accessToken),
	}, &acls); err != nil {
		return "", fmt.Errorf("failed to list linkedin organizations: %w", err)
	}

	for _, acl := range acls.Elements {
		if strings.HasPrefix(acl.Organization, linkedInOrganizationURN) {
			return acl.Organization, nil
		}
	}

	return "", &OAuthError{Reason: ReasonNoOrganizations}
}

func (s *linkedinService) RefreshToken(ctx context.Context, acc *models.SocialAccount) (*models.AccountInput, error) {
	if acc.RefreshToken == "" {
		return nil, errors.New("linkedin account has no refresh token")
	}

	src := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{
		RefreshToken: acc.RefreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	})
	token, err := src.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("linkedin token refresh failed: %w", err)
	}

	input := accountInputFrom(acc)
	input.AccessToken = token.AccessToken
	input.AccessTokenExpiresAt = expiresAtFromTime(token.Expiry)
	if token.RefreshToken != "" {
		input.RefreshToken = token.RefreshToken
	}
	if exp := GetExpiresAt(extraInt64(token.Extra("refresh_token_expires_in"))); exp != nil {
		input.RefreshTokenExpiresAt = exp
	}
	return input, nil
}

func (s *linkedinService) PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) == 0 {
		return nil, errors.New("no images to publish")
	}

	imageURN, err := s.uploadImage(ctx, acc, content.ImageURLs[0])
	if err != nil {
		return nil, err
	}

	return s.createPost(ctx, acc, content.Caption, transfer.LinkedInPostContent{
		Media: &transfer.LinkedInMediaContent{ID: imageURN, AltText: content.Title},
	})
}

func (s *linkedinService) PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) < 2 {
		return s.PublishSingle(ctx, acc, content)
	}

	images := make([]transfer.LinkedInMediaContent, 0, len(content.ImageURLs))
	for _, imageURL := range content.ImageURLs {
		imageURN, err := s.uploadImage(ctx, acc, imageURL)
		if err != nil {
			return nil, err
		}
		images = append(images, transfer.LinkedInMediaContent{ID: imageURN, AltText: content.Title})
	}

	return s.createPost(ctx, acc, content.Caption, transfer.LinkedInPostContent{
		MultiImage: &transfer.LinkedInMultiImageContent{Images: images},
	})
}

// uploadImage registers an upload with LinkedIn, then pushes the photo bytes
// to the returned upload URL.
func (s *linkedinService) uploadImage(ctx context.Context, acc *models.SocialAccount, imageURL string) (string, error) {
	var initReq transfer.LinkedInInitializeUploadRequest
	initReq.InitializeUploadRequest.Owner = acc.OrganizationID

	var initResp transfer.LinkedInInitializeUploadResponse
	if _, err := s.api.do(ctx, apiRequest{
		method:  http.MethodPost,
		path:    "/rest/images",
		query:   url.Values{"action": {"initializeUpload"}},
		json:    initReq,
		headers: s.headers(acc.AccessToken),
	}, &initResp); err != nil {
		return "", fmt.Errorf("failed to initialize linkedin upload: %w", err)
	}

	if initResp.Value.UploadURL == "" || initResp.Value.Image == "" {
		return "", errors.New("linkedin did not return an upload url")
	}

	data, contentType, err := s.api.fetch(ctx, imageURL, 0)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.api.do(ctx, apiRequest{
		method:      http.MethodPut,
		path:        initResp.Value.UploadURL,
		raw:         data,
		contentType: contentType,
		headers:     map[string]string{"Authorization": "Bearer " + acc.AccessToken},
	}, nil); err != nil {
		return "", fmt.Errorf("failed to upload image to linkedin: %w", err)
	}

	return initResp.Value.Image, nil
}

func (s *linkedinService) createPost(ctx context.Context, acc *models.SocialAccount, caption string, content transfer.LinkedInPostContent) (*PublishResult, error) {
	post := transfer.LinkedInPostRequest{
		Author:     acc.OrganizationID,
		Commentary: caption,
		Visibility: "PUBLIC",
		Distribution: transfer.LinkedInDistribution{
			FeedDistribution:               "MAIN_FEED",
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
		Content:        content,
		LifecycleState: "PUBLISHED",
	}

	header, err := s.api.do(ctx, apiRequest{
		method:  http.MethodPost,
		path:    "/rest/posts",
		json:    post,
		headers: s.headers(acc.AccessToken),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create linkedin post: %w", err)
	}

	postURN := header.Get("x-restli-id")
	if postURN == "" {
		return nil, errors.New("no post id returned from linkedin")
	}

	return &PublishResult{
		ExternalID:  postURN,
		ExternalURL: fmt.Sprintf("https://www.linkedin.com/feed/update/%s/", postURN),
		URLReliable: false,
	}, nil
}

func accountInputFrom(acc *models.SocialAccount) *models.AccountInput {
	return &models.AccountInput{
		Platform:              acc.Platform,
		ProviderAccountID:     acc.ProviderAccountID,
		ProviderAccountName:   acc.ProviderAccountName,
		OrganizationID:        acc.OrganizationID,
		AccessToken:           acc.AccessToken,
		RefreshToken:          acc.RefreshToken,
		AccessTokenExpiresAt:  acc.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: acc.RefreshTokenExpiresAt,
		Scopes:                acc.Scopes,
		Metadata:              acc.Metadata,
		ConnectedBy:           acc.ConnectedBy,
	}
}
