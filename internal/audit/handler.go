package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/store"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Entry is a stored denial.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Node      string    `json:"node"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// Handler exposes recorded denials to operators.
type Handler struct {
	store *store.Store
}

// NewHandler creates an audit Handler.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// List handles GET /api/admin/audit. Optional filters: reason, role,
// user_id, node, limit.
func (h *Handler) List(c *fiber.Ctx) error {
	pb := h.store.Dialect.NewParamBuilder()
	var conditions []string
	for _, col := range []string{"reason", "role", "user_id", "node"} {
		if v := c.Query(col); v != "" {
			conditions = append(conditions, fmt.Sprintf("%s = %s", col, pb.Add(v)))
		}
	}

	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		return engine.ValidationError([]engine.ErrorDetail{{
			Field: "limit", Rule: "range",
			Message: fmt.Sprintf("limit must be between 1 and %d", maxLimit),
		}})
	}

	sqlStr := "SELECT id, user_id, role, node, method, path, reason, created_at FROM _auth_audit"
	if len(conditions) > 0 {
		sqlStr += " WHERE " + strings.Join(conditions, " AND ")
	}
	sqlStr += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %s", pb.Add(limit))

	rows, err := store.QueryRows(c.UserContext(), h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return engine.InternalError("Failed to list audit entries")
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ID:        store.ToString(row["id"]),
			UserID:    store.ToString(row["user_id"]),
			Role:      store.ToString(row["role"]),
			Node:      store.ToString(row["node"]),
			Method:    store.ToString(row["method"]),
			Path:      store.ToString(row["path"]),
			Reason:    store.ToString(row["reason"]),
			CreatedAt: store.ToTime(row["created_at"]),
		})
	}
	return c.JSON(fiber.Map{"data": entries})
}

// RegisterRoutes mounts the audit endpoint on the admin group behind
// settings.view.
func RegisterRoutes(admin fiber.Router, h *Handler, g *engine.Guard) {
	admin.Get("/audit", g.RequirePermission(policy.SettingsView), h.List)
}
