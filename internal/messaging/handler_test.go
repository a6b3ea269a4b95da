package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"fleet-backend/internal/config"
	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
	"fleet-backend/internal/store"
)

func testApp(t *testing.T) (*fiber.App, *store.User) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{Driver: "sqlite", Path: t.TempDir(), Name: "messaging_test"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	sender, err := s.CreateUser(ctx, "sender@example.com", "hash", "Plant Manager")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	g := engine.NewGuard(engine.NewEngine(policy.Default()), nil)
	app := fiber.New(fiber.Config{ErrorHandler: engine.ErrorHandler})
	authMW := func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			session.Set(c, &session.Session{UserID: sender.ID, Role: policy.Role(utils.CopyString(role))})
		}
		return c.Next()
	}
	RegisterRoutes(app, NewHandler(s), g, authMW)
	return app, sender
}

func send(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestCreate_RequiresMessagingManage(t *testing.T) {
	app, _ := testApp(t)
	msg := map[string]string{"channel": "plant-7", "body": "truck 12 loaded"}

	cases := []struct {
		role string
		want int
	}{
		{"Plant Manager", http.StatusCreated},
		{"User", http.StatusForbidden},
		{"Guest", http.StatusForbidden},
		{"Supervisor", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		if resp := send(t, app, "POST", "/api/messages", tc.role, msg); resp.StatusCode != tc.want {
			t.Fatalf("role %q: expected %d, got %d", tc.role, tc.want, resp.StatusCode)
		}
	}
}

func TestList_RequiresMessagingView(t *testing.T) {
	app, sender := testApp(t)
	if resp := send(t, app, "POST", "/api/messages", "Plant Manager", map[string]string{"channel": "plant-7", "body": "hello"}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp := send(t, app, "GET", "/api/messages?channel=plant-7", "User", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for User, got %d", resp.StatusCode)
	}
	var body struct {
		Data []Message `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Body != "hello" || body.Data[0].SenderID != sender.ID {
		t.Fatalf("unexpected messages %+v", body.Data)
	}
	if body.Data[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	if resp := send(t, app, "GET", "/api/messages?channel=plant-7", "Guest", nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for Guest, got %d", resp.StatusCode)
	}
}

func TestCreate_Validation(t *testing.T) {
	app, _ := testApp(t)
	resp := send(t, app, "POST", "/api/messages", "Plant Manager", map[string]string{"channel": " ", "body": ""})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var errResp engine.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(errResp.Error.Details) != 2 {
		t.Fatalf("expected 2 validation details, got %+v", errResp.Error.Details)
	}
}
