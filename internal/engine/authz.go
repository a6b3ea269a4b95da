package engine

import "fleet-backend/internal/policy"

// Engine answers permission questions against a policy table.
//
// It holds no mutable state, so one Engine is shared by every request.
// Every failure (unknown role, unknown node, empty input, nil table)
// resolves to a denial; nothing here returns an error.
type Engine struct {
	table *policy.Table
}

// NewEngine wraps t. A nil table denies everything.
func NewEngine(t *policy.Table) *Engine {
	return &Engine{table: t}
}

// HasPermission reports whether role holds node. Nodes need not be in the
// catalogue; an uncatalogued node is simply never granted.
func (e *Engine) HasPermission(node policy.Node, role policy.Role) bool {
	if e == nil {
		return false
	}
	return e.table.GrantsFor(role).Has(node)
}

// GetPermissions returns the full grant set of role, for callers that
// render many capabilities at once.
func (e *Engine) GetPermissions(role policy.Role) policy.Set {
	if e == nil {
		return policy.Set{}
	}
	return e.table.GrantsFor(role)
}

// Table returns the policy table the engine was built on.
func (e *Engine) Table() *policy.Table {
	if e == nil {
		return nil
	}
	return e.table
}
