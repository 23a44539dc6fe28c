package middleware

import (
	"tradeledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const traceIDHeader = "X-Trace-Id"

// Tracing tags each request with a trace ID, reusing the caller's when it
// sends a valid UUID, echoes it on the response and attaches a logger
// carrying it to the request's user context.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Locals(response.TraceLocal, traceID)
		c.Set(traceIDHeader, traceID)

		logger := log.With().Str("trace_id", traceID).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))
		return c.Next()
	}
}

// GetTraceID returns the trace ID from context.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(response.TraceLocal).(string); ok {
		return id
	}
	return ""
}

// Logger returns the request logger set by Tracing, or the global logger.
func Logger(c *fiber.Ctx) *zerolog.Logger {
	if l := zerolog.Ctx(c.UserContext()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
