package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/signalement-service/internal/api/http/handlers"
	"github.com/spec-kit/signalement-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Signalements   *handlers.SignalementsHandler
	Catalog        *handlers.CatalogHandler
	Statistics     *handlers.StatisticsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	AdminAPIKey    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Patch("/me", cfg.AuthMiddleware.Handle, cfg.Auth.UpdateMe)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	signalements := protected.Group("/signalements")
	signalements.Post("", cfg.Signalements.Create)
	signalements.Get("", cfg.Signalements.List)
	signalements.Get("/pending-validation", auth.RequireManager(), cfg.Signalements.ListPendingValidation)
	signalements.Get("/:id", cfg.Signalements.Get)
	signalements.Patch("/:id", cfg.Signalements.Update)
	signalements.Delete("/:id", auth.RequireManager(), cfg.Signalements.Delete)
	signalements.Put("/:id/status", auth.RequireManager(), cfg.Signalements.SetStatus)
	signalements.Get("/:id/history", cfg.Signalements.History)
	signalements.Post("/:id/photos", cfg.Signalements.AddPhotos)
	signalements.Get("/:id/validation", cfg.Signalements.GetValidation)
	signalements.Put("/:id/validate", auth.RequireManager(), cfg.Signalements.Validate)
	signalements.Get("/:id/validation/history", cfg.Signalements.ValidationHistory)

	protected.Get("/statuses", cfg.Catalog.ListStatuses)
	protected.Post("/statuses", auth.RequireManager(), cfg.Catalog.CreateStatus)
	protected.Put("/statuses/:id", auth.RequireManager(), cfg.Catalog.UpdateStatus)
	protected.Delete("/statuses/:id", auth.RequireManager(), cfg.Catalog.DeleteStatus)
	protected.Get("/entreprises", cfg.Catalog.ListEntreprises)
	protected.Post("/entreprises", auth.RequireManager(), cfg.Catalog.CreateEntreprise)
	protected.Get("/entreprises/:id", cfg.Catalog.GetEntreprise)
	protected.Put("/entreprises/:id", auth.RequireManager(), cfg.Catalog.UpdateEntreprise)
	protected.Delete("/entreprises/:id", auth.RequireManager(), cfg.Catalog.DeleteEntreprise)
	protected.Get("/validation-statuses", cfg.Catalog.ListValidationStatuses)
	protected.Get("/type-users", cfg.Catalog.ListTypeUsers)

	protected.Get("/statistics", cfg.Statistics.Global)

	admin := api.Group("/admin", auth.RequireAdminKey(cfg.AdminAPIKey))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Put("/users/:id/role", cfg.Admin.AssignRole)
	admin.Post("/users/:id/unblock", cfg.Admin.Unblock)
	admin.Post("/mirror/sync/signalements", cfg.Admin.PullSignalements)
	admin.Post("/mirror/sync/signalements/reverse", cfg.Admin.PushSignalements)
	admin.Post("/mirror/sync/users", cfg.Admin.PushUsers)
}
