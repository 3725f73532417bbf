package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	_ "github.com/chynybekuuludastan/sitecloner/docs" // registers the generated spec
)

// SetupSwagger configures the Swagger routes
func SetupSwagger(app *fiber.App) {
	// must precede the wildcard, which also matches the bare path
	app.Get("/swagger", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html")
	})

	app.Get("/swagger/*", swagger.HandlerDefault)
}
