package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"billing-backend/logger"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestid"

// RequestID echoes a client-supplied X-Request-ID or assigns a fresh uuid.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	})
}

// RequestLog logs each request once it completes. It runs after RequestID.
func RequestLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		id, _ := c.Locals(requestIDKey).(string)

		chainErr := c.Next()
		if chainErr != nil {
			// Write the error response here so the logged status is the real one.
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		log := logger.WithComponent("http")
		ev := log.Info()
		if chainErr != nil {
			ev = log.Warn().Err(chainErr)
		}
		ev.Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}
