package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/social-publisher/internal/metrics"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/pkg/utils"
)

const stateBytes = 32

type CallbackParams struct {
	Code          string
	State         string
	CookieState   string
	ProviderError string
}

type OAuthService interface {
	AuthorizationURL(platform string) (authURL, state string, err error)
	HandleCallback(ctx context.Context, platform string, params CallbackParams, connectedBy string) ([]string, error)
	Disconnect(ctx context.Context, platform string) error
	RefreshAccount(ctx context.Context, platform string) error
}

type oauthService struct {
	accounts   AccountStore
	connectors map[string]Connector
	metrics    *metrics.Registry
}

func NewOAuthService(accounts AccountStore, m *metrics.Registry, connectors ...Connector) OAuthService {
	byPlatform := make(map[string]Connector, len(connectors))
	for _, c := range connectors {
		byPlatform[c.Platform()] = c
	}
	return &oauthService{
		accounts:   accounts,
		connectors: byPlatform,
		metrics:    m,
	}
}

func (s *oauthService) connector(platform string) (Connector, error) {
	c, ok := s.connectors[FlowPlatform(platform)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}
	return c, nil
}

// AuthorizationURL returns the provider URL to redirect to and the fresh
// state value the caller must store for the callback.
func (s *oauthService) AuthorizationURL(platform string) (string, string, error) {
	c, err := s.connector(platform)
	if err != nil {
		return "", "", err
	}

	state, err := utils.GenerateRandomKey(stateBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}

	return c.AuthCodeURL(state), state, nil
}

// HandleCallback verifies state before anything else, then exchanges the
// code and stores the primary account. Linked accounts are stored after the
// primary one and their failures do not undo it. It returns the platforms
// that were connected.
func (s *oauthService) HandleCallback(ctx context.Context, platform string, params CallbackParams, connectedBy string) ([]string, error) {
	connected, err := s.handleCallback(ctx, platform, params, connectedBy)

	result := "connected"
	if err != nil {
		result = ReasonServerError
		var oauthErr *OAuthError
		if errors.As(err, &oauthErr) {
			result = metricReason(oauthErr.Reason)
		}
	}
	s.metrics.RecordCallback(platform, result)

	return connected, err
}

// metricReason keeps provider supplied messages out of metric labels.
func metricReason(reason string) string {
	switch reason {
	case ReasonUnauthorized, ReasonMissingParams, ReasonInvalidState,
		ReasonNoOrganizations, ReasonNoPages, ReasonNoAccount:
		return reason
	default:
		return "provider_error"
	}
}

func (s *oauthService) handleCallback(ctx context.Context, platform string, params CallbackParams, connectedBy string) ([]string, error) {
	c, err := s.connector(platform)
	if err != nil {
		return nil, err
	}

	if params.ProviderError == "" && (params.Code == "" || params.State == "") {
		return nil, &OAuthError{Reason: ReasonMissingParams}
	}

	if !utils.SecureCompare(params.State, params.CookieState) {
		slog.Info("oauth state mismatch", "platform", platform)
		return nil, &OAuthError{Reason: ReasonInvalidState}
	}

	if params.ProviderError != "" {
		return nil, &OAuthError{Reason: params.ProviderError}
	}

	primary, err := c.Connect(ctx, params.Code)
	if err != nil {
		var oauthErr *OAuthError
		if errors.As(err, &oauthErr) {
			return nil, err
		}
		return nil, &OAuthError{Reason: providerReason(err), Err: err}
	}
	primary.ConnectedBy = connectedBy

	if _, err := s.accounts.Put(ctx, primary); err != nil {
		return nil, err
	}
	connected := []string{primary.Platform}

	discoverer, ok := c.(LinkedAccountDiscoverer)
	if !ok {
		return connected, nil
	}

	linked, err := discoverer.DiscoverLinked(ctx, primary)
	if err != nil {
		slog.Error("linked account discovery failed", "platform", primary.Platform, "err", err)
		return connected, nil
	}

	for _, in := range linked {
		in.ConnectedBy = connectedBy
		if _, err := s.accounts.Put(ctx, in); err != nil {
			slog.Error("failed to save linked account", "platform", in.Platform, "err", err)
			continue
		}
		connected = append(connected, in.Platform)
	}

	return connected, nil
}

func (s *oauthService) Disconnect(ctx context.Context, platform string) error {
	if !models.IsValidPlatform(platform) {
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}

	deleted, err := s.accounts.Delete(ctx, platform)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%s %w", platform, ErrAccountNotFound)
	}

	slog.Info("social account disconnected", "platform", platform)
	return nil
}

// RefreshAccount renews the stored token for platform. Platforms whose
// tokens do not expire are left untouched.
func (s *oauthService) RefreshAccount(ctx context.Context, platform string) error {
	acc, err := s.accounts.Get(ctx, platform)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%s %w", platform, ErrAccountNotFound)
	}

	c, ok := s.connectors[platform]
	if !ok {
		return nil
	}
	refresher, ok := c.(TokenRefresher)
	if !ok {
		return nil
	}

	in, err := refresher.RefreshToken(ctx, acc)
	if err != nil {
		s.metrics.RecordRefresh(platform, "failed")
		return err
	}

	if _, err := s.accounts.Put(ctx, in); err != nil {
		s.metrics.RecordRefresh(platform, "failed")
		return err
	}

	s.metrics.RecordRefresh(platform, "refreshed")
	slog.Info("social account token refreshed", "platform", platform)
	return nil
}
