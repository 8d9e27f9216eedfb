package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/repository"
	"github.com/maheshrc27/social-publisher/pkg/utils"
)

// AccountStore persists one connection per platform. Tokens are encrypted
// on the way in and decrypted on the way out; callers never see ciphertext.
type AccountStore interface {
	Get(ctx context.Context, platform string) (*models.SocialAccount, error)
	Put(ctx context.Context, in *models.AccountInput) (*models.SocialAccount, error)
	Delete(ctx context.Context, platform string) (bool, error)
	List(ctx context.Context) ([]*models.SocialAccount, error)
	ListExpiring(ctx context.Context, within time.Duration) ([]*models.SocialAccount, error)
}

type accountStore struct {
	sa     repository.SocialAccountRepository
	cipher *utils.TokenCipher
}

func NewAccountStore(sa repository.SocialAccountRepository, cipher *utils.TokenCipher) AccountStore {
	return &accountStore{
		sa:     sa,
		cipher: cipher,
	}
}

// Get returns nil, nil when the platform has no connection.
func (s *accountStore) Get(ctx context.Context, platform string) (*models.SocialAccount, error) {
	acc, err := s.sa.GetByPlatform(ctx, platform)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s account: %w", platform, err)
	}
	if acc == nil {
		return nil, nil
	}

	acc.AccessToken, err = s.cipher.Decrypt(acc.AccessToken)
	if err != nil {
		slog.Error("access token decrypt failed", "platform", platform)
		return nil, fmt.Errorf("%s access token: %w", platform, err)
	}

	if acc.RefreshToken != "" {
		acc.RefreshToken, err = s.cipher.Decrypt(acc.RefreshToken)
		if err != nil {
			slog.Error("refresh token decrypt failed", "platform", platform)
			return nil, fmt.Errorf("%s refresh token: %w", platform, err)
		}
	}

	return acc, nil
}

// Put replaces the connection for in.Platform. The returned record carries
// no token material.
func (s *accountStore) Put(ctx context.Context, in *models.AccountInput) (*models.SocialAccount, error) {
	if !models.IsValidPlatform(in.Platform) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, in.Platform)
	}

	encryptedAccessToken, err := s.cipher.Encrypt(in.AccessToken)
	if err != nil {
		return nil, err
	}

	var encryptedRefreshToken string
	if in.RefreshToken != "" {
		encryptedRefreshToken, err = s.cipher.Encrypt(in.RefreshToken)
		if err != nil {
			return nil, err
		}
	}

	scopes := in.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	acc := &models.SocialAccount{
		Platform:              in.Platform,
		ProviderAccountID:     in.ProviderAccountID,
		ProviderAccountName:   in.ProviderAccountName,
		OrganizationID:        in.OrganizationID,
		AccessToken:           encryptedAccessToken,
		RefreshToken:          encryptedRefreshToken,
		AccessTokenExpiresAt:  in.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: in.RefreshTokenExpiresAt,
		Scopes:                scopes,
		Status:                models.AccountStatusActive,
		Metadata:              models.Metadata(in.Metadata),
		ConnectedBy:           in.ConnectedBy,
	}

	if err := s.sa.Upsert(ctx, acc); err != nil {
		return nil, fmt.Errorf("failed to save %s account: %w", in.Platform, err)
	}

	slog.Info("social account saved", "platform", acc.Platform, "account", acc.ProviderAccountID)

	acc.AccessToken = ""
	acc.RefreshToken = ""
	return acc, nil
}

func (s *accountStore) Delete(ctx context.Context, platform string) (bool, error) {
	return s.sa.DeleteByPlatform(ctx, platform)
}

func (s *accountStore) List(ctx context.Context) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.List(ctx)
	if err != nil {
		return nil, err
	}
	return stripTokens(accounts), nil
}

func (s *accountStore) ListExpiring(ctx context.Context, within time.Duration) ([]*models.SocialAccount, error) {
	accounts, err := s.sa.ListExpiring(ctx, time.Now().Add(within))
	if err != nil {
		return nil, err
	}
	return stripTokens(accounts), nil
}

func stripTokens(accounts []*models.SocialAccount) []*models.SocialAccount {
	for _, acc := range accounts {
		acc.AccessToken = ""
		acc.RefreshToken = ""
	}
	return accounts
}
