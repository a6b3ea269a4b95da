package engine

import "github.com/gofiber/fiber/v2"

// RegisterSessionRoutes mounts the caller-permission endpoints under /api/session.
func RegisterSessionRoutes(app *fiber.App, h *SessionHandler, middleware ...fiber.Handler) {
	api := app.Group("/api/session", middleware...)

	api.Get("/", h.Current)
	api.Get("/permissions/:node", h.Can)
}
