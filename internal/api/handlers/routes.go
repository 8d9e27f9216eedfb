package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/social-publisher/internal/api/middleware"
)

func RegisterRoutes(app fiber.Router, auth *middleware.AuthMiddleware, social *SocialHandler, post *PostHandler) {
	// The callback checks the session itself so failures still redirect.
	app.Get("/social/:platform/callback", social.Callback)

	admin := app.Group("/social", auth.RequireAdmin())
	admin.Get("/accounts", social.ListAccounts)
	admin.Get("/posts/:id", post.GetPost)
	admin.Post("/post", post.CreatePost)
	admin.Get("/:platform/connect", social.Connect)
	admin.Delete("/:platform/disconnect", social.Disconnect)
}
