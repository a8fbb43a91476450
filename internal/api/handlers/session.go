package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mondaychat/monday/internal/services"
	"github.com/mondaychat/monday/internal/store"
)

// StartSession creates a session with the persistent fact set plus any
// client-supplied extras.
func StartSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Facts []string `json:"facts"`
		}
		// An empty body is fine; facts are optional.
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return jsonError(c, fiber.StatusBadRequest, "invalid request body")
			}
		}

		sid, count, err := svc.Session.Start(c.Context(), req.Facts)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"session_id":  sid,
			"facts_count": count,
		})
	}
}

// EndSession flushes and discards a session.
func EndSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
		if req.SessionID == "" {
			return jsonError(c, fiber.StatusBadRequest, "session_id is required")
		}

		result, err := svc.Session.End(c.Context(), req.SessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return jsonError(c, fiber.StatusNotFound, "session not found")
			}
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"ok":                  true,
			"messages_in_session": result.Messages,
			"saved_to_db":         result.Saved,
			"facts":               result.Facts,
		})
	}
}
