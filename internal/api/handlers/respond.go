package handlers

import "github.com/gofiber/fiber/v2"

// jsonError renders the standard error envelope. Every API-prefixed
// route reports failures this way, never as a bare 500 page.
func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": msg,
	})
}
