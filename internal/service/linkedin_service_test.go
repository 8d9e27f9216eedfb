package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinkedIn struct {
	server *httptest.Server
	orgs   string

	mu       sync.Mutex
	uploads  map[string][]byte
	posts    []transfer.LinkedInPostRequest
	initSeen int
	grants   []string
}

func newFakeLinkedIn(t *testing.T) *fakeLinkedIn {
	t.Helper()
	f := &fakeLinkedIn{
		orgs:    `{"elements":[{"organization":"urn:li:organization:123","role":"ADMINISTRATOR","state":"APPROVED"}]}`,
		uploads: make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.grants = append(f.grants, r.PostForm.Get("grant_type"))
		f.mu.Unlock()
		if r.PostForm.Get("grant_type") == "refresh_token" {
			writeJSON(w, http.StatusOK, `{"access_token":"li-access-2","expires_in":5184000}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"access_token":"li-access","expires_in":5184000,"refresh_token":"li-refresh","refresh_token_expires_in":31536000,"scope":"r_organization_social,w_organization_social"}`)
	})
	mux.HandleFunc("/rest/organizationAcls", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer li-access" || r.Header.Get("LinkedIn-Version") != "202401" {
			writeJSON(w, http.StatusUnauthorized, `{"status":401,"message":"missing headers"}`)
			return
		}
		writeJSON(w, http.StatusOK, f.orgs)
	})
	mux.HandleFunc("/rest/organizations/123", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":123,"localizedName":"The Venue","vanityName":"the-venue"}`)
	})
	mux.HandleFunc("/rest/images", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.initSeen++
		n := f.initSeen
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"value":{"uploadUrl":"%s/upload/%d","image":"urn:li:image:%d"}}`, f.server.URL, n, n))
	})
	mux.HandleFunc("/upload/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.uploads[r.URL.Path] = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/photos/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes-" + r.URL.Path))
	})
	mux.HandleFunc("/rest/posts", func(w http.ResponseWriter, r *http.Request) {
		var post transfer.LinkedInPostRequest
		_ = json.NewDecoder(r.Body).Decode(&post)
		f.mu.Lock()
		f.posts = append(f.posts, post)
		f.mu.Unlock()
		w.Header().Set("x-restli-id", "urn:li:share:9")
		w.WriteHeader(http.StatusCreated)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeLinkedIn) service() LinkedInService {
	cfg := config.Config{
		LinkedIn: config.OAuthApp{
			ClientID:     "li-client",
			ClientSecret: "li-secret",
			RedirectURI:  "https://admin.test/social/linkedin/callback",
			Scopes:       []string{"w_organization_social"},
			AuthURL:      f.server.URL + "/oauth/v2/authorization",
			TokenURL:     f.server.URL + "/oauth/v2/accessToken",
			APIBaseURL:   f.server.URL,
		},
		LinkedInAPIVersion: "202401",
	}
	return NewLinkedInService(cfg, f.server.Client())
}

func TestLinkedInConnect(t *testing.T) {
	f := newFakeLinkedIn(t)

	in, err := f.service().Connect(context.Background(), "code")
	require.NoError(t, err)

	assert.Equal(t, models.PlatformLinkedIn, in.Platform)
	assert.Equal(t, "123", in.ProviderAccountID)
	assert.Equal(t, "urn:li:organization:123", in.OrganizationID)
	assert.Equal(t, "The Venue", in.ProviderAccountName)
	assert.Equal(t, "li-access", in.AccessToken)
	assert.Equal(t, "li-refresh", in.RefreshToken)
	assert.Equal(t, []string{"r_organization_social", "w_organization_social"}, in.Scopes)
	require.NotNil(t, in.AccessTokenExpiresAt)
	require.NotNil(t, in.RefreshTokenExpiresAt)
	assert.True(t, in.RefreshTokenExpiresAt.After(*in.AccessTokenExpiresAt))
}

func TestLinkedInConnectWithoutOrganizations(t *testing.T) {
	f := newFakeLinkedIn(t)
	f.orgs = `{"elements":[]}`

	_, err := f.service().Connect(context.Background(), "code")

	var oauthErr *OAuthError
	require.ErrorAs(t, err, &oauthErr)
	assert.Equal(t, ReasonNoOrganizations, oauthErr.Reason)
}

func TestLinkedInPublishSingle(t *testing.T) {
	f := newFakeLinkedIn(t)
	acc := &models.SocialAccount{OrganizationID: "urn:li:organization:123", AccessToken: "li-access"}

	res, err := f.service().PublishSingle(context.Background(), acc, PublishContent{
		Caption:   "Doors at 8",
		ImageURLs: []string{f.server.URL + "/photos/p1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "urn:li:share:9", res.ExternalID)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:share:9/", res.ExternalURL)
	assert.False(t, res.URLReliable)

	assert.Equal(t, []byte("jpeg-bytes-/photos/p1"), f.uploads["/upload/1"])
	require.Len(t, f.posts, 1)
	assert.Equal(t, "urn:li:organization:123", f.posts[0].Author)
	assert.Equal(t, "Doors at 8", f.posts[0].Commentary)
	require.NotNil(t, f.posts[0].Content.Media)
	assert.Equal(t, "urn:li:image:1", f.posts[0].Content.Media.ID)
}

func TestLinkedInPublishMultiple(t *testing.T) {
	f := newFakeLinkedIn(t)
	acc := &models.SocialAccount{OrganizationID: "urn:li:organization:123", AccessToken: "li-access"}

	_, err := f.service().PublishMultiple(context.Background(), acc, PublishContent{
		Caption:   "Doors at 8",
		ImageURLs: []string{f.server.URL + "/photos/p1", f.server.URL + "/photos/p2"},
	})
	require.NoError(t, err)

	require.Len(t, f.posts, 1)
	assert.Nil(t, f.posts[0].Content.Media)
	require.NotNil(t, f.posts[0].Content.MultiImage)
	assert.Equal(t, []transfer.LinkedInMediaContent{{ID: "urn:li:image:1"}, {ID: "urn:li:image:2"}}, f.posts[0].Content.MultiImage.Images)
	assert.Len(t, f.uploads, 2)
}

func TestLinkedInRefreshToken(t *testing.T) {
	f := newFakeLinkedIn(t)
	acc := &models.SocialAccount{
		Platform:       models.PlatformLinkedIn,
		OrganizationID: "urn:li:organization:123",
		AccessToken:    "li-access",
		RefreshToken:   "li-refresh",
		ConnectedBy:    "7",
	}

	in, err := f.service().RefreshToken(context.Background(), acc)
	require.NoError(t, err)
	assert.Equal(t, "li-access-2", in.AccessToken)
	assert.Equal(t, "li-refresh", in.RefreshToken)
	assert.Equal(t, "urn:li:organization:123", in.OrganizationID)
	assert.Contains(t, f.grants, "refresh_token")

	_, err = f.service().RefreshToken(context.Background(), &models.SocialAccount{AccessToken: "x"})
	assert.Error(t, err)
}
