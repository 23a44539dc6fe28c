// Package router builds the ops HTTP app served next to the ledger server.
package router

import (
	"tradeledger/internal/health"
	"tradeledger/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// CreateApp wires the health endpoints behind the standard middleware chain.
func CreateApp(deps health.Deps, adminKey string) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &health.Handlers{Deps: deps, AdminKey: adminKey}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)

	return app
}
