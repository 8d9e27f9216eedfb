package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(cfg config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/private", NewAuthMiddleware(cfg).RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func TestRequireAdmin(t *testing.T) {
	cfg := config.Config{SecretKey: "secret", CookieName: "session"}
	app := newTestApp(cfg)

	admin, err := utils.GenerateToken("secret", "7", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	editor, err := utils.GenerateToken("secret", "8", "editor", time.Hour)
	require.NoError(t, err)
	forged, err := utils.GenerateToken("other", "7", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie string
		status int
	}{
		{"admin", admin, http.StatusOK},
		{"no cookie", "", http.StatusUnauthorized},
		{"not admin", editor, http.StatusUnauthorized},
		{"bad signature", forged, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
