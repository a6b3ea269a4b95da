package session

import (
	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/policy"
)

const localsKey = "session"

// Session is the authenticated caller, set by the auth middleware.
// Role is taken from the token as-is; an unrecognised label is kept so the
// policy table can deny it.
type Session struct {
	UserID string      `json:"user_id"`
	Role   policy.Role `json:"role"`
}

// Authenticated reports whether s carries a user and a non-empty role.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != "" && s.Role != ""
}

// Set attaches s to the request.
func Set(c *fiber.Ctx, s *Session) {
	c.Locals(localsKey, s)
}

// Get returns the request's session, or nil.
func Get(c *fiber.Ctx) *Session {
	s, _ := c.Locals(localsKey).(*Session)
	return s
}
