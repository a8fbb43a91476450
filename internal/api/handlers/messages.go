package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mondaychat/monday/internal/chat"
	"github.com/mondaychat/monday/internal/services"
)

// ListMessages returns every retained entry for a session, hidden and
// summary entries included; callers filter as needed.
func ListMessages(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := firstNonEmpty(c.Query("sid"), c.Cookies(sidCookie))
		if sid == "" {
			return jsonError(c, fiber.StatusBadRequest, "sid is required")
		}

		items, err := svc.Store.List(c.Context(), sid)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"ok":    true,
			"items": items,
		})
	}
}

// SaveMessages appends a normalized batch to a session. Invalid entries
// are dropped, not fatal; the response reports the count actually saved.
func SaveMessages(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SID   string            `json:"sid"`
			Items []json.RawMessage `json:"items"`
		}
		if err := c.BodyParser(&req); err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid request body")
		}

		sid := firstNonEmpty(req.SID, c.Cookies(sidCookie))
		if sid == "" {
			return jsonError(c, fiber.StatusBadRequest, "sid is required")
		}

		entries := chat.Normalize(req.Items, time.Now())
		saved, err := svc.Store.AppendBatch(c.Context(), sid, entries)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"ok":    true,
			"saved": saved,
		})
	}
}

// PurgeHidden removes hidden non-summary entries from a session.
func PurgeHidden(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SID string `json:"sid"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return jsonError(c, fiber.StatusBadRequest, "invalid request body")
			}
		}

		sid := firstNonEmpty(req.SID, c.Cookies(sidCookie))
		if sid == "" {
			return jsonError(c, fiber.StatusBadRequest, "sid is required")
		}

		removed, kept, err := svc.Store.PurgeHidden(c.Context(), sid)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"ok":      true,
			"removed": removed,
			"kept":    kept,
		})
	}
}
