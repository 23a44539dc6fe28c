package middleware

import (
	"errors"
	"time"

	"tradeledger/internal/ledgererr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RouteLogger logs each ops request with status and duration on the request
// logger, so the line carries the trace ID. Server errors log at error level.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = ledgererr.StatusOf(err)
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		level := zerolog.DebugLevel
		if status >= fiber.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}
		Logger(c).WithLevel(level).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("ops request")
		return err
	}
}
