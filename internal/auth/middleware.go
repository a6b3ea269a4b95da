package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/session"
)

// AuthMiddleware returns a Fiber middleware that validates JWT tokens
// and sets the Session on the request. The role claim is passed through
// unchecked; the policy table decides what it is worth.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return engine.UnauthorizedError("Missing auth token")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return engine.UnauthorizedError("Invalid auth header format")
		}

		claims, err := ParseAccessToken(parts[1], secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}

		session.Set(c, &session.Session{
			UserID: claims.Subject,
			Role:   claims.Role,
		})

		return c.Next()
	}
}
