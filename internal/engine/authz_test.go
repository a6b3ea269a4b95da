package engine

import (
	"sync"
	"testing"

	"fleet-backend/internal/policy"
)

func TestHasPermission_Scenarios(t *testing.T) {
	e := NewEngine(policy.Default())

	cases := []struct {
		role policy.Role
		node policy.Node
		want bool
	}{
		{"Plant Manager", "mixers.view", true},
		{"Plant Manager", "tractors.view", false},
		{"Guest", "account.manage", true},
		{"Guest", "mixers.view", false},
		{"", "account.manage", false},
	}
	for _, tc := range cases {
		if got := e.HasPermission(tc.node, tc.role); got != tc.want {
			t.Fatalf("HasPermission(%q, %q) = %v, want %v", tc.node, tc.role, got, tc.want)
		}
	}

	for _, n := range e.Table().AllNodes().Nodes() {
		if !e.HasPermission(n, policy.FullAccess) {
			t.Fatalf("full-access role denied %q", n)
		}
	}
}

func TestHasPermission_UncataloguedNodeDeniedForEveryRole(t *testing.T) {
	e := NewEngine(policy.Default())
	roles := append(policy.AllRoles(), "", "unknown")
	for _, n := range []policy.Node{"", "fuel.view", "mixers.*", "MIXERS.VIEW", "mixers.view ", "account"} {
		for _, r := range roles {
			if e.HasPermission(n, r) {
				t.Fatalf("uncatalogued node %q granted to %q", n, r)
			}
		}
	}
}

func TestUnknownRole_HasNothing(t *testing.T) {
	e := NewEngine(policy.Default())
	for _, r := range []policy.Role{"", "admin", "it", "Plant manager", "General Manager\x00"} {
		if got := e.GetPermissions(r); got.Len() != 0 {
			t.Fatalf("role %q: expected no permissions, got %v", r, got.Nodes())
		}
		for _, n := range e.Table().AllNodes().Nodes() {
			if e.HasPermission(n, r) {
				t.Fatalf("role %q granted %q", r, n)
			}
		}
	}
}

func TestGetPermissions_AgreesWithHasPermission(t *testing.T) {
	e := NewEngine(policy.Default())
	all := e.Table().AllNodes().Nodes()
	extra := []policy.Node{"fuel.view", ""}

	for _, r := range append(policy.AllRoles(), "", "unknown") {
		perms := e.GetPermissions(r)
		count := 0
		for _, n := range append(all, extra...) {
			if e.HasPermission(n, r) != perms.Has(n) {
				t.Fatalf("role %q node %q: entry points disagree", r, n)
			}
			if e.HasPermission(n, r) {
				count++
			}
		}
		if count != perms.Len() {
			t.Fatalf("role %q: GetPermissions has %d nodes, HasPermission grants %d", r, perms.Len(), count)
		}
	}
}

func TestGetPermissions_FullAccessEqualsAllNodes(t *testing.T) {
	e := NewEngine(policy.Default())
	if !e.GetPermissions(policy.FullAccess).Equal(e.Table().AllNodes()) {
		t.Fatal("full-access permissions differ from the catalogue")
	}
}

func TestHasPermission_Idempotent(t *testing.T) {
	e := NewEngine(policy.Default())
	first := e.GetPermissions(policy.RoleDispatchManager).Nodes()
	for i := 0; i < 3; i++ {
		if !e.HasPermission(policy.ReportsView, policy.RoleDispatchManager) {
			t.Fatal("expected reports.view for Dispatch Manager")
		}
		again := e.GetPermissions(policy.RoleDispatchManager).Nodes()
		if len(again) != len(first) {
			t.Fatalf("permission set changed between calls: %v vs %v", first, again)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("permission set changed between calls: %v vs %v", first, again)
			}
		}
	}
}

func TestHasPermission_NewNodeDefaultsToDenied(t *testing.T) {
	grants := map[policy.Role][]policy.Node{
		"Plant Manager": {"mixers.view"},
		"Guest":         {"account.manage"},
	}
	before, err := policy.New([]policy.Node{"mixers.view", "account.manage"}, grants, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	after, err := policy.New([]policy.Node{"mixers.view", "account.manage", "fuel.view"}, grants, "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	eb, ea := NewEngine(before), NewEngine(after)
	for _, r := range []policy.Role{"Plant Manager", "Guest", "User"} {
		for _, n := range []policy.Node{"mixers.view", "account.manage", "fuel.view"} {
			if eb.HasPermission(n, r) != ea.HasPermission(n, r) {
				t.Fatalf("role %q node %q changed after catalogue growth", r, n)
			}
		}
		if ea.HasPermission("fuel.view", r) {
			t.Fatalf("new node granted to %q without a grant", r)
		}
	}
}

func TestNilEngine_DeniesEverything(t *testing.T) {
	var e *Engine
	if e.HasPermission(policy.AccountManage, policy.FullAccess) {
		t.Fatal("nil engine granted a permission")
	}
	if e.GetPermissions(policy.FullAccess).Len() != 0 {
		t.Fatal("nil engine returned permissions")
	}

	e = NewEngine(nil)
	if e.HasPermission(policy.AccountManage, policy.FullAccess) {
		t.Fatal("engine over nil table granted a permission")
	}
}

func TestEngine_ConcurrentReaders(t *testing.T) {
	e := NewEngine(policy.Default())
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if !e.HasPermission(policy.MixersView, policy.RolePlantManager) {
					t.Error("expected mixers.view for Plant Manager")
					return
				}
				_ = e.GetPermissions(policy.RoleGuest).Nodes()
			}
		}()
	}
	wg.Wait()
}
