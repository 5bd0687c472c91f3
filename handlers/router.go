package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp builds the fiber app with middleware and the control routes
func NewApp(health *HealthHandler, trigger *TriggerHandler, metrics *MetricsHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "market-snapshot-bot",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", health.GetHealth)
	app.Post("/trigger", trigger.TriggerTask)
	app.Get("/metrics", metrics.GetMetrics)

	return app
}
