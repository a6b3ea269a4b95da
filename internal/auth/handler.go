package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
	"fleet-backend/internal/store"
)

// AuthHandler handles authentication and own-account endpoints.
type AuthHandler struct {
	store     *store.Store
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: s, jwtSecret: jwtSecret}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("Email and password are required")
	}

	ctx := c.UserContext()

	user, err := h.store.FindUserByEmail(ctx, body.Email)
	if err != nil {
		return engine.UnauthorizedError("Invalid email or password")
	}

	if !user.Active {
		return engine.UnauthorizedError("Account is disabled")
	}

	if !CheckPassword(body.Password, user.PasswordHash) {
		return engine.UnauthorizedError("Invalid email or password")
	}

	pair, err := h.generateTokenPair(ctx, user.ID, user.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Refresh handles POST /api/auth/refresh. The new access token carries the
// user's current role, not the one the old token had.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	ctx := c.UserContext()

	rt, err := h.store.FindRefreshToken(ctx, body.RefreshToken)
	if err != nil {
		return engine.UnauthorizedError("Invalid refresh token")
	}

	// Rotation: a refresh token is single-use whatever happens next.
	_ = h.store.DeleteRefreshToken(ctx, body.RefreshToken)

	if time.Now().After(rt.ExpiresAt) {
		return engine.UnauthorizedError("Refresh token expired")
	}
	if !rt.UserActive {
		return engine.UnauthorizedError("Account is disabled")
	}

	pair, err := h.generateTokenPair(ctx, rt.UserID, rt.UserRole)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": pair})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}
	if body.RefreshToken == "" {
		return engine.UnauthorizedError("Refresh token is required")
	}

	_ = h.store.DeleteRefreshToken(c.UserContext(), body.RefreshToken)

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Account handles GET /api/account.
func (h *AuthHandler) Account(c *fiber.Ctx) error {
	s := session.Get(c)
	user, err := h.store.FindUserByID(c.UserContext(), s.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return engine.UnauthorizedError("Account no longer exists")
	}
	if err != nil {
		return engine.InternalError("Failed to load account")
	}
	return c.JSON(fiber.Map{"data": user})
}

// ChangePassword handles PUT /api/account/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}
	if err := ValidatePassword(body.NewPassword); err != nil {
		return engine.ValidationError([]engine.ErrorDetail{{
			Field:   "new_password",
			Rule:    "min_length",
			Message: err.Error(),
		}})
	}

	ctx := c.UserContext()
	s := session.Get(c)
	user, err := h.store.FindUserByID(ctx, s.UserID)
	if err != nil {
		return engine.UnauthorizedError("Account no longer exists")
	}
	if !CheckPassword(body.CurrentPassword, user.PasswordHash) {
		return engine.ForbiddenError("Permission denied")
	}

	hash, err := HashPassword(body.NewPassword)
	if err != nil {
		return engine.InternalError("Failed to hash password")
	}
	if err := h.store.SetUserPassword(ctx, user.ID, hash); err != nil {
		return engine.InternalError("Failed to update password")
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// RegisterAuthRoutes registers auth routes on the given Fiber app. Login,
// refresh and logout are public; account routes need a session and the
// matching account node.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler, g *engine.Guard, authMW fiber.Handler) {
	auth := app.Group("/api/auth")
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)
	auth.Post("/logout", h.Logout)

	account := app.Group("/api/account", authMW)
	account.Get("/", g.RequirePermission(policy.AccountView), h.Account)
	account.Put("/password", g.RequirePermission(policy.AccountManage), h.ChangePassword)
}

// --- helpers ---

func (h *AuthHandler) generateTokenPair(ctx context.Context, userID string, role string) (*TokenPair, error) {
	accessToken, err := GenerateAccessToken(userID, policy.Role(role), h.jwtSecret)
	if err != nil {
		return nil, engine.InternalError("Failed to generate access token")
	}

	refreshToken := GenerateRefreshToken()
	if err := h.store.CreateRefreshToken(ctx, userID, refreshToken, time.Now().Add(RefreshTokenTTL)); err != nil {
		return nil, engine.InternalError("Failed to store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
