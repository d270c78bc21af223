package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/news-portal/internal/api/http/handlers"
	"github.com/spec-kit/news-portal/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	News           *handlers.NewsHandler
	Comments       *handlers.CommentHandler
	Accounts       *handlers.AccountHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Every route after the health checks
// resolves the bearer principal when one is sent.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("", cfg.AuthMiddleware.Handle)
	member := auth.RequireAuthenticated()

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api.Get("/news", cfg.News.ListNews)
	api.Get("/news/:id", cfg.News.GetNews)
	api.Post("/news", member, cfg.News.CreateNews)
	api.Put("/news/:id", member, cfg.News.UpdateNews)
	api.Delete("/news/:id", auth.RequireAdmin(), cfg.News.DeleteNews)

	api.Get("/news-groups", cfg.News.ListGroups)
	api.Get("/news-groups/:id", cfg.News.GetGroup)

	api.Get("/news/:id/comments", cfg.Comments.ListComments)
	api.Post("/news/:id/comments", member, cfg.Comments.AddComment)
	api.Put("/comments/:id", member, cfg.Comments.EditComment)
	api.Post("/comments/:id/toggle", auth.RequireAdmin(), cfg.Comments.ToggleComment)
	api.Delete("/comments/:id", auth.RequireAdmin(), cfg.Comments.DeleteComment)

	api.Get("/me", member, cfg.Accounts.Me)
	api.Put("/me", member, cfg.Accounts.UpdateProfile)
	api.Get("/users/authors", cfg.Accounts.ListAuthors)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/users", cfg.Accounts.ListUsers)
	admin.Patch("/users/:id", cfg.Accounts.UpdateAdminFields)
	admin.Delete("/users/:id", cfg.Accounts.DeleteUser)
}
