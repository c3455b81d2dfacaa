package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func SetupRouter(app *fiber.App, handler *InsightHandler, env string) {
	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "healthy",
			"service": "fliptrack-intel",
			"env":     env,
		})
	})

	// API Versioning
	v1 := app.Group("/v1")
	insights := v1.Group("/insights")
	insights.Post("/vendor", handler.Generate)
	insights.Get("/vendor/latest", handler.Latest)
	insights.Get("/usage", handler.Usage)
}
