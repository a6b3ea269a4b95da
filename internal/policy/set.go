package policy

import "sort"

// Set is a read-only set of nodes. The zero value is empty.
// Sets handed out by a Table share storage with it, so Set exposes no
// mutating methods.
type Set struct {
	m map[Node]struct{}
}

func newSet(nodes []Node) Set {
	m := make(map[Node]struct{}, len(nodes))
	for _, n := range nodes {
		m[n] = struct{}{}
	}
	return Set{m: m}
}

// Has reports whether n is in the set.
func (s Set) Has(n Node) bool {
	_, ok := s.m[n]
	return ok
}

// Len returns the number of nodes.
func (s Set) Len() int {
	return len(s.m)
}

// Nodes returns a sorted copy of the members.
func (s Set) Nodes() []Node {
	out := make([]Node, 0, len(s.m))
	for n := range s.m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted members as plain strings, for JSON responses.
func (s Set) Strings() []string {
	nodes := s.Nodes()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = string(n)
	}
	return out
}

// Equal reports whether both sets hold exactly the same nodes.
func (s Set) Equal(o Set) bool {
	if len(s.m) != len(o.m) {
		return false
	}
	for n := range s.m {
		if !o.Has(n) {
			return false
		}
	}
	return true
}
