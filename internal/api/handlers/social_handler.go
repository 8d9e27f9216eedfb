package handlers

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/api/middleware"
	"github.com/maheshrc27/social-publisher/internal/service"
)

const stateCookieTTL = 10 * time.Minute

type SocialHandler struct {
	oauth    service.OAuthService
	accounts service.AccountStore
	auth     *middleware.AuthMiddleware
	cfg      config.Config
}

func NewSocialHandler(oauth service.OAuthService, accounts service.AccountStore, auth *middleware.AuthMiddleware, cfg config.Config) *SocialHandler {
	return &SocialHandler{
		oauth:    oauth,
		accounts: accounts,
		auth:     auth,
		cfg:      cfg,
	}
}

func stateCookieName(platform string) string {
	return "oauth_state_" + service.FlowPlatform(platform)
}

// Connect starts the provider's authorization flow.
func (h *SocialHandler) Connect(c *fiber.Ctx) error {
	platform := c.Params("platform")

	authURL, state, err := h.oauth.AuthorizationURL(platform)
	if err != nil {
		return errorResponse(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName(platform),
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(stateCookieTTL),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(authURL, fiber.StatusFound)
}

// Callback always ends in a redirect to the admin settings page, carrying
// either the connected platforms or a failure reason.
func (h *SocialHandler) Callback(c *fiber.Ctx) error {
	platform := c.Params("platform")
	cookieName := stateCookieName(platform)
	cookieState := c.Cookies(cookieName)

	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1, // Delete cookie
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	claims, err := h.auth.Session(c)
	if err != nil {
		slog.Info("oauth callback without admin session", "platform", platform, "error", err.Error())
		return h.settingsRedirect(c, "error", service.ReasonUnauthorized)
	}

	connected, err := h.oauth.HandleCallback(c.Context(), platform, service.CallbackParams{
		Code:          c.Query("code"),
		State:         c.Query("state"),
		CookieState:   cookieState,
		ProviderError: providerErrorParam(c),
	}, claims.UserID)
	if err != nil {
		slog.Info(err.Error())

		reason := service.ReasonServerError
		var oauthErr *service.OAuthError
		if errors.As(err, &oauthErr) {
			reason = oauthErr.Reason
		}
		return h.settingsRedirect(c, "error", reason)
	}

	return h.settingsRedirect(c, "connected", strings.Join(connected, ","))
}

func providerErrorParam(c *fiber.Ctx) string {
	if desc := c.Query("error_description"); desc != "" {
		return desc
	}
	return c.Query("error")
}

func (h *SocialHandler) settingsRedirect(c *fiber.Ctx, key, value string) error {
	query := url.Values{}
	query.Set(key, value)

	redirectURL := strings.TrimRight(h.cfg.FrontendURL, "/") + h.cfg.AdminSettingsPath + "?" + query.Encode()
	return c.Redirect(redirectURL, fiber.StatusFound)
}

func (h *SocialHandler) Disconnect(c *fiber.Ctx) error {
	platform := c.Params("platform")

	if err := h.oauth.Disconnect(c.Context(), platform); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account disconnected",
	})
}

func (h *SocialHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.accounts.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}
