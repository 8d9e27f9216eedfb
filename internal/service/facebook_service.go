package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/transfer"
	"golang.org/x/oauth2"
)

type FacebookService interface {
	Connector
	LinkedAccountDiscoverer
	CarouselPublisher
}

type facebookService struct {
	cfg   config.Config
	oauth *oauth2.Config
	api   *apiClient
}

func NewFacebookService(cfg config.Config, httpClient *http.Client) FacebookService {
	return &facebookService{
		cfg:   cfg,
		oauth: metaOAuthConfig(cfg.Meta),
		api:   newAPIClient(models.PlatformFacebook, cfg.Meta.APIBaseURL, httpClient),
	}
}

func metaOAuthConfig(app config.OAuthApp) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  app.RedirectURI,
		Scopes:       app.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   app.AuthURL,
			TokenURL:  app.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (s *facebookService) Platform() string {
	return models.PlatformFacebook
}

func (s *facebookService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// Connect exchanges the code, upgrades the short-lived user token and
// selects the Page to post as. The stored credential is the Page token.
func (s *facebookService) Connect(ctx context.Context, code string) (*models.AccountInput, error) {
	shortLived, err := s.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, s.api.http), code)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("meta code exchange failed: %w", err)
	}

	longLived, err := s.exchangeLongLivedToken(ctx, shortLived.AccessToken)
	if err != nil {
		return nil, err
	}

	page, err := s.selectPage(ctx, longLived.AccessToken)
	if err != nil {
		return nil, err
	}

	input := &models.AccountInput{
		Platform:            models.PlatformFacebook,
		ProviderAccountID:   page.ID,
		ProviderAccountName: page.Name,
		OrganizationID:      page.ID,
		AccessToken:         page.AccessToken,
		Scopes:              s.grantedScopes(ctx, longLived.AccessToken),
		Metadata: map[string]string{
			"page_category": page.Category,
		},
	}

	return input, nil
}

func (s *facebookService) exchangeLongLivedToken(ctx context.Context, shortLivedToken string) (*transfer.LongLivedTokenResponse, error) {
	query := url.Values{}
	query.Set("grant_type", "fb_exchange_token")
	query.Set("client_id", s.cfg.Meta.ClientID)
	query.Set("client_secret", s.cfg.Meta.ClientSecret)
	query.Set("fb_exchange_token", shortLivedToken)

	var result transfer.LongLivedTokenResponse
	if err := s.api.get(ctx, s.cfg.Meta.TokenURL, query, &result); err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}
	if result.AccessToken == "" {
		return nil, errors.New("meta returned an empty long-lived token")
	}
	return &result, nil
}

func (s *facebookService) selectPage(ctx context.Context, userToken string) (*transfer.FacebookPage, error) {
	query := url.Values{}
	query.Set("fields", "id,name,access_token,category,tasks")
	query.Set("access_token", userToken)

	var pages transfer.FacebookPagesResponse
	if err := s.api.get(ctx, "/me/accounts", query, &pages); err != nil {
		return nil, fmt.Errorf("failed to list facebook pages: %w", err)
	}

	if len(pages.Data) == 0 {
		return nil, &OAuthError{Reason: ReasonNoPages}
	}

	if s.cfg.MetaPageID == "" {
		return &pages.Data[0], nil
	}

	for i := range pages.Data {
		if pages.Data[i].ID == s.cfg.MetaPageID {
			return &pages.Data[i], nil
		}
	}

	return nil, &OAuthError{
		Reason: ReasonNoPages,
		Err:    fmt.Errorf("configured page %s is not managed by this user", s.cfg.MetaPageID),
	}
}

func (s *facebookService) grantedScopes(ctx context.Context, userToken string) []string {
	var perms transfer.MetaPermissionsResponse
	if err := s.api.get(ctx, "/me/permissions", url.Values{"access_token": {userToken}}, &perms); err != nil {
		slog.Info("meta permissions lookup failed, using requested scopes", "err", err)
		return s.cfg.Meta.Scopes
	}

	var scopes []string
	for _, p := range perms.Data {
		if p.Status == "granted" {
			scopes = append(scopes, p.Permission)
		}
	}
	return scopes
}

// DiscoverLinked returns the Instagram Business account attached to the
// connected Page, if any. It reuses the Page token.
func (s *facebookService) DiscoverLinked(ctx context.Context, primary *models.AccountInput) ([]*models.AccountInput, error) {
	query := url.Values{}
	query.Set("fields", "instagram_business_account{id,username,name}")
	query.Set("access_token", primary.AccessToken)

	var page transfer.PageInstagramResponse
	if err := s.api.get(ctx, "/"+primary.ProviderAccountID, query, &page); err != nil {
		return nil, fmt.Errorf("failed to look up linked instagram account: %w", err)
	}

	ig := page.InstagramBusinessAccount
	if ig == nil || ig.ID == "" {
		return nil, nil
	}

	name := ig.Username
	if name == "" {
		name = ig.Name
	}

	return []*models.AccountInput{{
		Platform:            models.PlatformInstagram,
		ProviderAccountID:   ig.ID,
		ProviderAccountName: name,
		OrganizationID:      primary.ProviderAccountID,
		AccessToken:         primary.AccessToken,
		Scopes:              primary.Scopes,
		Metadata: map[string]string{
			"page_id": primary.ProviderAccountID,
		},
		ConnectedBy: primary.ConnectedBy,
	}}, nil
}

func (s *facebookService) PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) == 0 {
		return nil, errors.New("no images to publish")
	}

	form := url.Values{}
	form.Set("url", content.ImageURLs[0])
	form.Set("message", content.Caption)
	form.Set("published", "true")
	form.Set("access_token", acc.AccessToken)

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, "/"+acc.ProviderAccountID+"/photos", form, &result); err != nil {
		return nil, fmt.Errorf("failed to publish facebook photo: %w", err)
	}

	postID := result.PostID
	if postID == "" {
		postID = result.ID
	}
	if postID == "" {
		return nil, errors.New("no post id returned from facebook")
	}

	return facebookResult(postID), nil
}

// PublishMultiple uploads each photo unpublished, then creates one feed
// post that attaches all of them.
func (s *facebookService) PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	if len(content.ImageURLs) < 2 {
		return s.PublishSingle(ctx, acc, content)
	}

	form := url.Values{}
	form.Set("message", content.Caption)
	form.Set("access_token", acc.AccessToken)

	for i, imageURL := range content.ImageURLs {
		photo := url.Values{}
		photo.Set("url", imageURL)
		photo.Set("published", "false")
		photo.Set("access_token", acc.AccessToken)

		var uploaded transfer.GraphIDResponse
		if err := s.api.postForm(ctx, "/"+acc.ProviderAccountID+"/photos", photo, &uploaded); err != nil {
			return nil, fmt.Errorf("failed to upload facebook photo %d: %w", i+1, err)
		}
		if uploaded.ID == "" {
			return nil, fmt.Errorf("no media id returned for facebook photo %d", i+1)
		}
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, uploaded.ID))
	}

	var result transfer.GraphIDResponse
	if err := s.api.postForm(ctx, "/"+acc.ProviderAccountID+"/feed", form, &result); err != nil {
		return nil, fmt.Errorf("failed to publish facebook post: %w", err)
	}
	if result.ID == "" {
		return nil, errors.New("no post id returned from facebook")
	}

	return facebookResult(result.ID), nil
}

func facebookResult(postID string) *PublishResult {
	return &PublishResult{
		ExternalID:  postID,
		ExternalURL: "https://www.facebook.com/" + postID,
		URLReliable: false,
	}
}
