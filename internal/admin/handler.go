package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/auth"
	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/store"
)

type Handler struct {
	store  *store.Store
	engine *engine.Engine
}

func NewHandler(s *store.Store, e *engine.Engine) *Handler {
	return &Handler{store: s, engine: e}
}

// RegisterAdminRoutes mounts the admin group and returns it so other
// packages can add their admin endpoints behind the same middleware.
func RegisterAdminRoutes(app *fiber.App, h *Handler, g *engine.Guard, authMW fiber.Handler) fiber.Router {
	admin := app.Group("/api/admin", authMW)

	admin.Get("/users", g.RequirePermission(policy.UsersView), h.ListUsers)
	admin.Post("/users", g.RequirePermission(policy.UsersManage), h.CreateUser)
	admin.Put("/users/:id/role", g.RequirePermission(policy.UsersManage), h.SetRole)

	admin.Get("/roles", g.RequirePermission(policy.SettingsView), h.ListRoles)
	admin.Get("/policy", g.RequirePermission(policy.SettingsView), h.Policy)
	return admin
}

// --- User Endpoints ---

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.store.ListUsers(c.UserContext())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []*store.User{}
	}
	return c.JSON(fiber.Map{"data": users})
}

func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	var details []engine.ErrorDetail
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		details = append(details, engine.ErrorDetail{Field: "email", Rule: "format", Message: "a valid email is required"})
	}
	if err := auth.ValidatePassword(body.Password); err != nil {
		details = append(details, engine.ErrorDetail{Field: "password", Rule: "min_length", Message: err.Error()})
	}
	role, ok := policy.ParseRole(body.Role)
	if !ok {
		details = append(details, roleDetail(body.Role))
	}
	if len(details) > 0 {
		return engine.ValidationError(details)
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user, err := h.store.CreateUser(c.UserContext(), body.Email, hash, string(role))
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return engine.ConflictError("User already exists: " + body.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": user})
}

// SetRole assigns a role to a user. Only labels from the known role list are
// accepted; the user's refresh tokens are revoked by the store.
func (h *Handler) SetRole(c *fiber.Ctx) error {
	id := c.Params("id")

	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}
	role, ok := policy.ParseRole(body.Role)
	if !ok {
		return engine.ValidationError([]engine.ErrorDetail{roleDetail(body.Role)})
	}

	if err := h.store.SetUserRole(c.UserContext(), id, string(role)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.NotFoundError("User", id)
		}
		return fmt.Errorf("set role: %w", err)
	}

	user, err := h.store.FindUserByID(c.UserContext(), id)
	if err != nil {
		return fmt.Errorf("reload user: %w", err)
	}
	return c.JSON(fiber.Map{"data": user})
}

// --- Policy Endpoints ---

func (h *Handler) ListRoles(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": policy.AllRoles()})
}

type roleGrants struct {
	Role       policy.Role `json:"role"`
	FullAccess bool        `json:"full_access"`
	Nodes      []string    `json:"nodes"`
}

// Policy returns the catalogue and every role's grant set.
func (h *Handler) Policy(c *fiber.Ctx) error {
	t := h.engine.Table()
	roles := t.Roles()
	matrix := make([]roleGrants, 0, len(roles))
	for _, r := range roles {
		matrix = append(matrix, roleGrants{
			Role:       r,
			FullAccess: r == t.FullAccessRole(),
			Nodes:      h.engine.GetPermissions(r).Strings(),
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"nodes": t.AllNodes().Strings(),
		"roles": matrix,
	}})
}

func roleDetail(role string) engine.ErrorDetail {
	return engine.ErrorDetail{Field: "role", Rule: "enum", Message: fmt.Sprintf("unknown role %q", role)}
}
