package middleware

import (
	"errors"

	"tradeledger/internal/ledgererr"
	"tradeledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders handler errors as JSON envelopes. Errors outside the
// fiber and ledger taxonomies are logged and answered with a bare 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) && !ledgererr.IsClientError(err) {
		Logger(c).Error().Err(err).Str("path", c.Path()).Msg("ops request failed")
	}
	return response.FromError(c, err)
}
