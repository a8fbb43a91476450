package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mondaychat/monday/internal/services"
)

// Health reports store reachability.
func Health(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Store.Ping(c.Context()); err != nil {
			return jsonError(c, fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}
