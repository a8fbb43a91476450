package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/mondaychat/monday/internal/services"
)

// sidCookie carries the session id between page loads.
const sidCookie = "monday_sid"

// Chat handles one conversation turn, GET or POST. The message comes
// from `message` or `q`; history may ride along in the POST body.
func Chat(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SID     string            `json:"sid"`
			Message string            `json:"message"`
			Q       string            `json:"q"`
			History []json.RawMessage `json:"history"`
		}

		if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return jsonError(c, fiber.StatusBadRequest, "invalid request body")
			}
		}

		message := firstNonEmpty(req.Message, req.Q, c.Query("message"), c.Query("q"))
		sid := firstNonEmpty(req.SID, c.Query("sid"), c.Cookies(sidCookie))

		reply, err := svc.Chat.Respond(c.Context(), services.ChatRequest{
			SID:     sid,
			Message: message,
			History: req.History,
		})
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		if sid != "" {
			c.Cookie(&fiber.Cookie{Name: sidCookie, Value: sid, HTTPOnly: true})
		}

		if c.Query("plain") == "1" {
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.SendString(reply)
		}
		return c.JSON(fiber.Map{
			"ok":    true,
			"reply": reply,
		})
	}
}

// StreamChat is the WebSocket variant: one request message in, reply
// chunks out until a finish or error chunk.
func StreamChat(svc *services.Services) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		var req struct {
			SID     string            `json:"sid"`
			Message string            `json:"message"`
			History []json.RawMessage `json:"history"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			conn.WriteJSON(fiber.Map{"error": "failed to parse request"})
			return
		}

		// Canceling this context tears down the provider stream when the
		// client goes away mid-reply.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		chunks, err := svc.Chat.RespondStream(ctx, services.ChatRequest{
			SID:     req.SID,
			Message: req.Message,
			History: req.History,
		})
		if err != nil {
			conn.WriteJSON(fiber.Map{"error": err.Error()})
			return
		}

		for chunk := range chunks {
			if err := conn.WriteJSON(chunk); err != nil {
				// Client disconnected
				break
			}
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
