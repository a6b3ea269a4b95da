package navigation

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
)

func TestMenu_NodesAreCatalogued(t *testing.T) {
	all := policy.Default().AllNodes()
	seen := map[string]bool{}
	for _, it := range Menu() {
		if !all.Has(it.Node) {
			t.Fatalf("menu item %s guarded by uncatalogued node %q", it.Path, it.Node)
		}
		if seen[it.Path] {
			t.Fatalf("duplicate menu path %s", it.Path)
		}
		seen[it.Path] = true
	}
}

func TestVisible_MatchesEngine(t *testing.T) {
	e := engine.NewEngine(policy.Default())
	for _, r := range append(policy.AllRoles(), "", "Supervisor") {
		visible := Visible(e.GetPermissions(r))
		shown := map[string]bool{}
		for _, it := range visible {
			shown[it.Path] = true
		}
		for _, it := range Menu() {
			if shown[it.Path] != e.HasPermission(it.Node, r) {
				t.Fatalf("role %q path %s: menu and engine disagree", r, it.Path)
			}
			if Allowed(it.Path, e.GetPermissions(r)) != shown[it.Path] {
				t.Fatalf("role %q path %s: route guard and menu disagree", r, it.Path)
			}
		}
	}
}

func TestAllowed_PlantManager(t *testing.T) {
	perms := policy.Default().GrantsFor(policy.RolePlantManager)
	cases := map[string]bool{
		"/mixers":                  true,
		"/mixers/":                 true,
		"/mixers/42":               true,
		"/mixers/42?tab=x":         true,
		"mixers":                   true,
		"/tractors":                false,
		"/tractors/7":              false,
		"/mixersfoo":               false,
		"/mixers/./42":             true,
		"//mixers":                 true,
		"/mixers/%34%32":           true,
		"/mixers/../users":         false,
		"/mixers/../settings":      false,
		"/mixers/%2e%2e/users":     false,
		"/mixers/%252e%252e/users": false,
		"/mixers/..":               false,
		"/mixers/%zz":              false,
		"/unknown":                 false,
		"/":                        false,
		"":                         false,
	}
	for path, want := range cases {
		if got := Allowed(path, perms); got != want {
			t.Fatalf("Allowed(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestAllowed_GuestOnlyAccount(t *testing.T) {
	perms := policy.Default().GrantsFor(policy.RoleGuest)
	visible := Visible(perms)
	if len(visible) != 1 || visible[0].Path != "/account" {
		t.Fatalf("expected only /account for Guest, got %+v", visible)
	}
}

type captureRecorder struct {
	mu      sync.Mutex
	denials []engine.Denial
}

func (r *captureRecorder) RecordDenial(d engine.Denial) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denials = append(r.denials, d)
}

func (r *captureRecorder) all() []engine.Denial {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Denial(nil), r.denials...)
}

func testApp() *fiber.App {
	app, _ := recordingApp()
	return app
}

func recordingApp() (*fiber.App, *captureRecorder) {
	rec := &captureRecorder{}
	g := engine.NewGuard(engine.NewEngine(policy.Default()), rec)
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	authMW := func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			session.Set(c, &session.Session{UserID: "u1", Role: policy.Role(utils.CopyString(role))})
		}
		return c.Next()
	}
	RegisterRoutes(app, NewHandler(g), authMW)
	return app, rec
}

func get(t *testing.T, app *fiber.App, path, role string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest("GET", path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestHandler_Menu(t *testing.T) {
	app := testApp()

	resp := get(t, app, "/api/navigation", "Ready Mix Instructor")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Data []Item `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var paths []string
	for _, it := range body.Data {
		paths = append(paths, it.Path)
	}
	want := []string{"/mixers", "/operators", "/messages", "/account"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, paths)
		}
	}

	if resp := get(t, app, "/api/navigation", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestHandler_Guard(t *testing.T) {
	app := testApp()
	cases := []struct {
		path string
		role string
		want int
	}{
		{"/mixers/42", "Plant Manager", http.StatusOK},
		{"/tractors", "Plant Manager", http.StatusForbidden},
		{"/nowhere", "Plant Manager", http.StatusForbidden},
		{"/nowhere", "IT", http.StatusForbidden},
		{"/settings", "IT", http.StatusOK},
		{"/account", "Supervisor", http.StatusForbidden},
		{"/account", "", http.StatusUnauthorized},
		{"/nowhere", "", http.StatusUnauthorized},
		{"/mixers/../users", "Plant Manager", http.StatusForbidden},
		{"/mixers/%2e%2e/users", "Plant Manager", http.StatusForbidden},
		{"/mixers/../settings", "Plant Manager", http.StatusForbidden},
	}
	for _, tc := range cases {
		resp := get(t, app, "/api/navigation/guard?path="+url.QueryEscape(tc.path), tc.role)
		if resp.StatusCode != tc.want {
			t.Fatalf("path %s role %q: expected %d, got %d", tc.path, tc.role, tc.want, resp.StatusCode)
		}
	}

	if resp := get(t, app, "/api/navigation/guard", "IT"); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without path, got %d", resp.StatusCode)
	}
}

func TestHandler_GuardRecordsUnregisteredRoutes(t *testing.T) {
	if policy.Default().AllNodes().Has(unregisteredRoute) {
		t.Fatalf("%q must not be catalogued", unregisteredRoute)
	}

	app, rec := recordingApp()
	if resp := get(t, app, "/api/navigation/guard?path=/nowhere", "Plant Manager"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if resp := get(t, app, "/api/navigation/guard?path="+url.QueryEscape("/mixers/../users"), "IT"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for traversal, got %d", resp.StatusCode)
	}

	denials := rec.all()
	if len(denials) != 2 {
		t.Fatalf("expected 2 recorded denials, got %+v", denials)
	}
	for _, d := range denials {
		if d.Reason != engine.ReasonUnknownNode || d.Node != string(unregisteredRoute) {
			t.Fatalf("unexpected denial %+v", d)
		}
	}
	if denials[0].Role != "Plant Manager" || denials[1].Role != "IT" {
		t.Fatalf("unexpected roles %q, %q", denials[0].Role, denials[1].Role)
	}
}
