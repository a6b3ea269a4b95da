package engine

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
)

// Denial reasons. They are recorded for operators only and never sent to
// the client, which always sees the same 403.
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonUnknownRole     = "unknown_role"
	ReasonUnknownNode     = "unknown_node"
	ReasonDenied          = "denied"
)

// Denial describes one rejected request.
type Denial struct {
	UserID string
	Role   string
	Node   string
	Method string
	Path   string
	Reason string
	At     time.Time
}

// DenialRecorder receives denials for later inspection. Implementations
// must not block the request.
type DenialRecorder interface {
	RecordDenial(d Denial)
}

type noopRecorder struct{}

func (noopRecorder) RecordDenial(Denial) {}

// Guard enforces permission nodes on HTTP routes.
type Guard struct {
	engine   *Engine
	recorder DenialRecorder
}

// NewGuard creates a Guard. A nil recorder discards denials.
func NewGuard(e *Engine, rec DenialRecorder) *Guard {
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Guard{engine: e, recorder: rec}
}

// Engine returns the engine the guard consults.
func (g *Guard) Engine() *Engine {
	return g.engine
}

// RequirePermission returns middleware that lets the request through only
// if the session's role holds node. No session yields 401; everything else
// that is not a grant yields 403.
func (g *Guard) RequirePermission(node policy.Node) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := g.Check(c, node); err != nil {
			return err
		}
		return c.Next()
	}
}

// Check performs the same decision as RequirePermission inside a handler.
func (g *Guard) Check(c *fiber.Ctx, node policy.Node) error {
	s := session.Get(c)
	if !s.Authenticated() {
		g.record(c, s, node, ReasonUnauthenticated)
		return UnauthorizedError("Authentication required")
	}

	// Diagnose before asking the engine; its answer carries no reason.
	reason := ReasonDenied
	switch {
	case !s.Role.Known():
		reason = ReasonUnknownRole
	case !g.engine.Table().AllNodes().Has(node):
		reason = ReasonUnknownNode
	}

	if g.engine.HasPermission(node, s.Role) {
		return nil
	}
	g.record(c, s, node, reason)
	return ForbiddenError("Permission denied")
}

// Strings from fiber.Ctx are reused after the handler returns and session
// fields may point into them, so the recorder gets copies.
func (g *Guard) record(c *fiber.Ctx, s *session.Session, node policy.Node, reason string) {
	d := Denial{
		Node:   string(node),
		Method: utils.CopyString(c.Method()),
		Path:   utils.CopyString(c.Path()),
		Reason: reason,
		At:     time.Now().UTC(),
	}
	if s != nil {
		d.UserID = utils.CopyString(s.UserID)
		d.Role = utils.CopyString(string(s.Role))
	}
	g.recorder.RecordDenial(d)
}
