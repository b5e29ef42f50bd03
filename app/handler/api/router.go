package handler

import (
	"log/slog"

	"catalog-service/app/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogfiber "github.com/samber/slog-fiber"
)

// NewServer builds the ops HTTP app: probes, health and metrics.
func NewServer(webLogger *slog.Logger, healthHandler *HealthHandler, gatherer prometheus.Gatherer) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(slogfiber.New(webLogger))
	app.Use(recover.New())
	app.Use(middleware.RequestIDMiddleware())

	SetupRouter(app, healthHandler, gatherer)
	return app
}

func SetupRouter(app *fiber.App, healthHandler *HealthHandler, gatherer prometheus.Gatherer) {
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint:  "/live",
		ReadinessProbe:    healthHandler.Ready,
		ReadinessEndpoint: "/ready",
	}))

	app.Get("/health", healthHandler.Status)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
