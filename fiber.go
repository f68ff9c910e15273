package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
)

// NewServer builds a fiber backed router server with the adapter defaults
// this package expects. Options run against the fiber app after defaults are
// applied, so callers can still tune body limits, views, or error handling.
func NewServer(opts ...func(*fiber.App) *fiber.App) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		app := router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))

		for _, opt := range opts {
			app = opt(app)
		}

		return app
	})
}
