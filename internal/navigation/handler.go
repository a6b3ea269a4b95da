package navigation

import (
	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
)

// unregisteredRoute guards paths with no menu entry. It is never catalogued,
// so the guard denies it and records unknown_node.
const unregisteredRoute policy.Node = "navigation.unregistered"

// Handler serves the menu and route guard for the current session.
type Handler struct {
	guard *engine.Guard
}

// NewHandler creates a navigation Handler.
func NewHandler(g *engine.Guard) *Handler {
	return &Handler{guard: g}
}

// Menu handles GET /api/navigation.
func (h *Handler) Menu(c *fiber.Ctx) error {
	s := session.Get(c)
	if !s.Authenticated() {
		return engine.UnauthorizedError("Authentication required")
	}
	perms := h.guard.Engine().GetPermissions(s.Role)
	return c.JSON(fiber.Map{"data": Visible(perms)})
}

// Guard handles GET /api/navigation/guard?path=. Unregistered paths are
// denied exactly like registered ones the role lacks.
func (h *Handler) Guard(c *fiber.Ctx) error {
	path := c.Query("path")
	if path == "" {
		return engine.ValidationError([]engine.ErrorDetail{{
			Field: "path", Rule: "required", Message: "path is required",
		}})
	}

	node := unregisteredRoute
	it, ok := Lookup(path)
	if ok {
		node = it.Node
	}
	if err := h.guard.Check(c, node); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"path": it.Path, "allowed": true}})
}

// RegisterRoutes mounts the menu and route guard endpoints behind authMW.
func RegisterRoutes(app *fiber.App, h *Handler, authMW fiber.Handler) {
	nav := app.Group("/api/navigation", authMW)
	nav.Get("/", h.Menu)
	nav.Get("/guard", h.Guard)
}
