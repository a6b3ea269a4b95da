package engine

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
)

// SessionHandler exposes the caller's own permissions so the UI can decide
// what to render.
type SessionHandler struct {
	engine *Engine
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(e *Engine) *SessionHandler {
	return &SessionHandler{engine: e}
}

// Current handles GET /api/session.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	s := session.Get(c)
	if !s.Authenticated() {
		return UnauthorizedError("Authentication required")
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"user_id":     s.UserID,
		"role":        s.Role,
		"permissions": h.engine.GetPermissions(s.Role).Strings(),
	}})
}

// Can handles GET /api/session/permissions/:node.
func (h *SessionHandler) Can(c *fiber.Ctx) error {
	s := session.Get(c)
	if !s.Authenticated() {
		return UnauthorizedError("Authentication required")
	}
	node := policy.Node(c.Params("node"))
	return c.JSON(fiber.Map{"data": fiber.Map{
		"node":    string(node),
		"allowed": h.engine.HasPermission(node, s.Role),
	}})
}

// ErrorHandler renders AppErrors as {"error": {...}} and hides everything
// else behind a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return c.Status(code).JSON(ErrorResponse{Error: &AppError{
			Code:    "HTTP_ERROR",
			Message: fiberErr.Message,
		}})
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(ErrorResponse{
		Error: &AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
