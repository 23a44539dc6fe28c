package health

import (
	"crypto/subtle"

	"tradeledger/internal/ledgererr"
	"tradeledger/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Deps     Deps
	AdminKey string
}

// JSON returns health data (GET /health/json).
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := CollectHealth(c.UserContext(), h.Deps)
	return c.JSON(fiber.Map{
		"service":        "tradeledger",
		"status":         result.Status,
		"runtime":        result.Runtime,
		"traffic":        result.Traffic,
		"activeSessions": result.ActiveSessions,
		"dependencies":   result.Dependencies,
	})
}

// Reset clears command statistics. Requires query key=HEALTH_ADMIN_KEY;
// Stats failures go to the app's error handler.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if h.AdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.AdminKey)) != 1 {
		return response.FromError(c, ledgererr.Denied("invalid health admin key"))
	}
	if h.Deps.Stats != nil {
		if err := h.Deps.Stats.Reset(c.UserContext()); err != nil {
			return err
		}
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true})
}
