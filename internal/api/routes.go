// Package api wires the HTTP surface of the service.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"

	"github.com/chynybekuuludastan/sitecloner/internal/api/handlers"
	"github.com/chynybekuuludastan/sitecloner/internal/telemetry"
)

// Handlers bundles everything SetupRoutes mounts. Nil handlers leave their routes out.
type Handlers struct {
	Generate *handlers.GenerateHandler
	Preview  *handlers.PreviewHandler
	Progress *handlers.ProgressHandler
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", handlers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	api := app.Group("/api")
	api.Get("/health", handlers.Health)

	if h.Generate != nil {
		api.Post("/analyze", h.Generate.Generate)
		api.Post("/generate", h.Generate.Generate)
	}

	if h.Preview != nil {
		api.Get("/screenshot", h.Preview.Screenshot)
		api.Get("/can-embed", h.Preview.CanEmbed)
	}

	// WebSocket endpoint for generation progress
	if h.Progress != nil {
		app.Get("/ws/generate/:id", h.Progress.Upgrade, websocket.New(h.Progress.Stream))
	}
}
