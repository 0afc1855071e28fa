package middleware

import (
	"errors"
	"fmt"

	"storefront/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders errors as {message, stack?, ...fields}. The stack
// carries the internal error chain and is omitted in production.
func ErrorHandler(logger *zap.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := apperr.HTTPStatus(err)
		message := apperr.PublicMessage(err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		body := fiber.Map{}
		if ae, ok := apperr.As(err); ok {
			for k, v := range ae.Fields {
				body[k] = v
			}
		}
		body["message"] = message
		if !production {
			body["stack"] = err.Error()
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
				zap.Int("status", status),
				zap.Error(err))
		}

		return c.Status(status).JSON(body)
	}
}

// NotFound answers any request that matched no route.
func NotFound(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("Not Found - %s", c.OriginalURL()))
}
