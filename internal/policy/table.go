package policy

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrMalformedNode  = errors.New("malformed permission node")
	ErrDuplicateNode  = errors.New("duplicate permission node")
	ErrUnknownNode    = errors.New("permission node not in catalogue")
	ErrFullAccessList = errors.New("full-access role must not list grants")
)

// Table is the immutable role to grant-set mapping plus the node catalogue.
// It is built once and shared by every caller without locking.
// A nil *Table behaves as an empty table.
type Table struct {
	all        Set
	grants     map[Role]Set
	fullAccess Role
}

// New validates the catalogue and grant lists and builds a Table. The grant
// set of fullAccess is derived from the catalogue and must not be listed in
// grants.
func New(catalogue []Node, grants map[Role][]Node, fullAccess Role) (*Table, error) {
	seen := make(map[Node]struct{}, len(catalogue))
	for _, n := range catalogue {
		if !n.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrMalformedNode, n)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, n)
		}
		seen[n] = struct{}{}
	}

	t := &Table{
		all:        newSet(catalogue),
		grants:     make(map[Role]Set, len(grants)+1),
		fullAccess: fullAccess,
	}

	for role, nodes := range grants {
		if fullAccess != "" && role == fullAccess {
			return nil, fmt.Errorf("%w: %q", ErrFullAccessList, role)
		}
		for _, n := range nodes {
			if !t.all.Has(n) {
				return nil, fmt.Errorf("%w: role %q grants %q", ErrUnknownNode, role, n)
			}
		}
		t.grants[role] = newSet(nodes)
	}

	if fullAccess != "" {
		t.grants[fullAccess] = t.all
	}
	return t, nil
}

// Default returns the table shipped with the service. It panics if the
// literal data breaks an invariant, which stops the process at startup.
func Default() *Table {
	t, err := New(catalogue, grants, FullAccess)
	if err != nil {
		panic(fmt.Sprintf("policy: invalid built-in table: %v", err))
	}
	return t
}

// AllNodes returns the complete catalogue.
func (t *Table) AllNodes() Set {
	if t == nil {
		return Set{}
	}
	return t.all
}

// GrantsFor returns the grant set of role. Roles absent from the table,
// including the empty role, get the empty set.
func (t *Table) GrantsFor(role Role) Set {
	if t == nil {
		return Set{}
	}
	return t.grants[role]
}

// FullAccessRole returns the role whose grants equal the catalogue, or ""
// if the table has none.
func (t *Table) FullAccessRole() Role {
	if t == nil {
		return ""
	}
	return t.fullAccess
}

// Roles returns the roles present in the table, in AllRoles order first and
// any others after them sorted by name.
func (t *Table) Roles() []Role {
	if t == nil {
		return nil
	}
	out := make([]Role, 0, len(t.grants))
	listed := make(map[Role]struct{}, len(t.grants))
	for _, r := range roles {
		if _, ok := t.grants[r]; ok {
			out = append(out, r)
			listed[r] = struct{}{}
		}
	}
	var extra []Role
	for r := range t.grants {
		if _, ok := listed[r]; !ok {
			extra = append(extra, r)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
