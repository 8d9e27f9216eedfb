package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/transfer"
	"github.com/maheshrc27/social-publisher/pkg/utils"
)

var errNotAdmin = errors.New("admin role required")

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// Session returns the admin session carried by the request cookie.
func (m *AuthMiddleware) Session(c *fiber.Ctx) (*transfer.SessionClaims, error) {
	tokenString := c.Cookies(m.cfg.CookieName)
	if tokenString == "" {
		return nil, errors.New("missing session cookie")
	}

	claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != utils.RoleAdmin {
		return nil, errNotAdmin
	}
	return claims, nil
}

// RequireAdmin rejects requests without a valid admin session and stores
// the admin's id under the "user_id" local.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.Session(c)
		if err != nil {
			if c.Cookies(m.cfg.CookieName) != "" && !errors.Is(err, errNotAdmin) {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1, // Delete cookie
				})
			}

			slog.Info("admin authentication failed", "path", c.Path(), "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", claims.UserID)
		return c.Next()
	}
}
