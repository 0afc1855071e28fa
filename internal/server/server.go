// Package server assembles the Fiber application and its routes.
package server

import (
	"time"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Orders   *services.OrderService
	Products *services.ProductService
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *zap.Logger
}

// New builds the API application.
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: middleware.ErrorHandler(deps.Logger, cfg.IsProduction()),
		BodyLimit:    1 << 20,
	})

	app.Use(requestid.New())
	app.Use(middleware.Metrics(deps.Metrics))
	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientOrigin,
		AllowCredentials: cfg.ClientOrigin != "*",
	}))

	started := time.Now()
	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"uptime": time.Since(started).Seconds(),
		})
	})

	handlers.NewProductHandler(deps.Products).RegisterRoutes(api)
	handlers.NewCheckoutHandler(deps.Orders).RegisterRoutes(api)
	handlers.NewOrderHandler(deps.Orders).RegisterRoutes(api)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(deps.Gatherer)))
	}

	app.Use(middleware.NotFound)
	return app
}
