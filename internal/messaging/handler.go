// Package messaging is the chat endpoint. Storage is a plain insert and
// select; what matters here is that reads need messaging.view and writes
// need messaging.manage.
package messaging

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"fleet-backend/internal/engine"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/session"
	"fleet-backend/internal/store"
)

const (
	maxBodyLength = 4000
	listLimit     = 200
)

// Message is a chat message.
type Message struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Handler serves chat messages.
type Handler struct {
	store *store.Store
}

// NewHandler creates a messaging Handler.
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// List handles GET /api/messages?channel=.
func (h *Handler) List(c *fiber.Ctx) error {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		return engine.ValidationError([]engine.ErrorDetail{{
			Field: "channel", Rule: "required", Message: "channel is required",
		}})
	}

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"SELECT id, channel, sender_id, body, created_at FROM _messages WHERE channel = %s ORDER BY created_at DESC, id LIMIT %s",
		pb.Add(channel), pb.Add(listLimit))
	rows, err := store.QueryRows(c.UserContext(), h.store.DB, sqlStr, pb.Params()...)
	if err != nil {
		return engine.InternalError("Failed to list messages")
	}

	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, Message{
			ID:        store.ToString(row["id"]),
			Channel:   store.ToString(row["channel"]),
			SenderID:  store.ToString(row["sender_id"]),
			Body:      store.ToString(row["body"]),
			CreatedAt: store.ToTime(row["created_at"]),
		})
	}
	return c.JSON(fiber.Map{"data": messages})
}

// Create handles POST /api/messages.
func (h *Handler) Create(c *fiber.Ctx) error {
	var body struct {
		Channel string `json:"channel"`
		Body    string `json:"body"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.InvalidPayloadError()
	}

	var details []engine.ErrorDetail
	body.Channel = strings.TrimSpace(body.Channel)
	if body.Channel == "" {
		details = append(details, engine.ErrorDetail{Field: "channel", Rule: "required", Message: "channel is required"})
	}
	if strings.TrimSpace(body.Body) == "" {
		details = append(details, engine.ErrorDetail{Field: "body", Rule: "required", Message: "body is required"})
	} else if len(body.Body) > maxBodyLength {
		details = append(details, engine.ErrorDetail{Field: "body", Rule: "max_length", Message: fmt.Sprintf("body must be at most %d bytes", maxBodyLength)})
	}
	if len(details) > 0 {
		return engine.ValidationError(details)
	}

	msg := Message{
		ID:        uuid.New().String(),
		Channel:   body.Channel,
		SenderID:  session.Get(c).UserID,
		Body:      body.Body,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	pb := h.store.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf("INSERT INTO _messages (id, channel, sender_id, body, created_at) VALUES (%s, %s, %s, %s, %s)",
		pb.Add(msg.ID), pb.Add(msg.Channel), pb.Add(msg.SenderID), pb.Add(msg.Body), pb.Add(h.store.Dialect.TimeParam(msg.CreatedAt)))
	if _, err := store.Exec(c.UserContext(), h.store.DB, sqlStr, pb.Params()...); err != nil {
		return engine.InternalError("Failed to store message")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": msg})
}

func RegisterRoutes(app *fiber.App, h *Handler, g *engine.Guard, authMW fiber.Handler) {
	msgs := app.Group("/api/messages", authMW)
	msgs.Get("/", g.RequirePermission(policy.MessagingView), h.List)
	msgs.Post("/", g.RequirePermission(policy.MessagingManage), h.Create)
}
