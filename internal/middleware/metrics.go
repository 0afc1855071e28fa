package middleware

import (
	"time"

	"storefront/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request count and latency per matched route pattern.
// It must wrap RequestLogger so it observes the rendered status.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if status == fiber.StatusNotFound && route == "/" {
			route = "unmatched"
		}
		m.ObserveRequest(route, status, time.Since(start))
		return err
	}
}
