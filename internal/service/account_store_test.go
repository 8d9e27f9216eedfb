package service

import (
	"context"
	"testing"
	"time"

	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStoreEncryptsAtRest(t *testing.T) {
	repo := newMemAccountRepo()
	store := NewAccountStore(repo, newTestCipher(t))
	ctx := context.Background()

	expires := time.Now().Add(time.Hour)
	saved, err := store.Put(ctx, &models.AccountInput{
		Platform:             models.PlatformLinkedIn,
		ProviderAccountID:    "123",
		OrganizationID:       "urn:li:organization:123",
		AccessToken:          "plain-access",
		RefreshToken:         "plain-refresh",
		AccessTokenExpiresAt: &expires,
		Scopes:               []string{"w_organization_social"},
		ConnectedBy:          "7",
	})
	require.NoError(t, err)
	assert.Empty(t, saved.AccessToken)
	assert.Equal(t, models.AccountStatusActive, saved.Status)

	raw := repo.rows[models.PlatformLinkedIn]
	assert.NotEqual(t, "plain-access", raw.AccessToken)
	assert.NotEqual(t, "plain-refresh", raw.RefreshToken)
	assert.NotContains(t, raw.AccessToken, "plain")

	acc, err := store.Get(ctx, models.PlatformLinkedIn)
	require.NoError(t, err)
	assert.Equal(t, "plain-access", acc.AccessToken)
	assert.Equal(t, "plain-refresh", acc.RefreshToken)
	assert.Equal(t, "urn:li:organization:123", acc.OrganizationID)
}

func TestAccountStorePutReplacesPlatformRow(t *testing.T) {
	repo := newMemAccountRepo()
	store := NewAccountStore(repo, newTestCipher(t))
	ctx := context.Background()

	_, err := store.Put(ctx, &models.AccountInput{Platform: models.PlatformThreads, ProviderAccountID: "a", AccessToken: "old"})
	require.NoError(t, err)
	_, err = store.Put(ctx, &models.AccountInput{Platform: models.PlatformThreads, ProviderAccountID: "b", AccessToken: "new"})
	require.NoError(t, err)

	assert.Len(t, repo.rows, 1)
	acc, err := store.Get(ctx, models.PlatformThreads)
	require.NoError(t, err)
	assert.Equal(t, "b", acc.ProviderAccountID)
	assert.Equal(t, "new", acc.AccessToken)
	assert.Empty(t, acc.RefreshToken)
}

func TestAccountStoreGetMissing(t *testing.T) {
	store := NewAccountStore(newMemAccountRepo(), newTestCipher(t))

	acc, err := store.Get(context.Background(), models.PlatformFacebook)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestAccountStoreGetWithWrongKeyFails(t *testing.T) {
	repo := newMemAccountRepo()
	ctx := context.Background()

	_, err := NewAccountStore(repo, newTestCipher(t)).Put(ctx, &models.AccountInput{
		Platform: models.PlatformFacebook, ProviderAccountID: "page", AccessToken: "token",
	})
	require.NoError(t, err)

	_, err = NewAccountStore(repo, newTestCipher(t)).Get(ctx, models.PlatformFacebook)
	assert.ErrorIs(t, err, utils.ErrDecrypt)
}

func TestAccountStoreRejectsUnknownPlatform(t *testing.T) {
	repo := newMemAccountRepo()
	store := NewAccountStore(repo, newTestCipher(t))

	_, err := store.Put(context.Background(), &models.AccountInput{Platform: "myspace", AccessToken: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
	assert.Empty(t, repo.rows)
}

func TestAccountStoreListOmitsTokens(t *testing.T) {
	repo := newMemAccountRepo()
	store := NewAccountStore(repo, newTestCipher(t))
	ctx := context.Background()

	soon := time.Now().Add(time.Hour)
	later := time.Now().Add(30 * 24 * time.Hour)
	_, err := store.Put(ctx, &models.AccountInput{Platform: models.PlatformThreads, AccessToken: "t1", AccessTokenExpiresAt: &soon})
	require.NoError(t, err)
	_, err = store.Put(ctx, &models.AccountInput{Platform: models.PlatformLinkedIn, AccessToken: "t2", AccessTokenExpiresAt: &later})
	require.NoError(t, err)

	accounts, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, acc := range accounts {
		assert.Empty(t, acc.AccessToken)
	}

	expiring, err := store.ListExpiring(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, models.PlatformThreads, expiring[0].Platform)
	assert.Empty(t, expiring[0].AccessToken)

	deleted, err := store.Delete(ctx, models.PlatformThreads)
	require.NoError(t, err)
	assert.True(t, deleted)
}
