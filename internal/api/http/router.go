package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vinicaliel/SolarDetect-Fullstack/internal/api/http/handlers"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/auth"
	"github.com/vinicaliel/SolarDetect-Fullstack/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	User          *handlers.UserHandler
	Predict       *handlers.PredictHandler
	Authenticator *auth.Authenticator
	Metrics       *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Everything under /api sits behind the
// authenticator; a request that fails authentication never reaches the quota
// enforcer or the prediction proxy.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", func(c *fiber.Ctx) error {
		requests, errs := cfg.Metrics.Snapshot()
		return c.JSON(fiber.Map{"requests": requests, "errors": errs})
	})

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.Authenticator.Handle)
	api.Get("/user/profile", cfg.User.Profile)
	api.Put("/user/profile", cfg.User.UpdateProfile)
	api.Get("/user/requests", cfg.User.History)
	api.Get("/predict", cfg.Predict.Get)
	api.Post("/predict/detect", cfg.Predict.Detect)
}
