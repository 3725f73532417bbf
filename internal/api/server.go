package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/chynybekuuludastan/sitecloner/internal/config"
	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
)

// NewApp creates the fiber app with the shared middleware stack and error handler
func NewApp(cfg *config.Config, log logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "sitecloner",
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: cfg.CORSOrigin != "*" && !strings.Contains(cfg.CORSOrigin, "*"),
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
	}))

	return app
}

// errorHandler renders errors that escape handlers in the common {error, category} shape
func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		category := pipeline.CategoryInternal
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			if code < fiber.StatusInternalServerError {
				category = pipeline.CategoryInput
			}
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("Unhandled request error", "error", err, "path", c.Path())
		}
		return c.Status(code).JSON(fiber.Map{
			"error":    err.Error(),
			"category": category,
		})
	}
}
