package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/mondaychat/monday/internal/api/handlers"
	"github.com/mondaychat/monday/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Session lifecycle
	api.Post("/session/start", handlers.StartSession(svc))
	api.Post("/session/end", handlers.EndSession(svc))

	// Conversation
	api.Get("/chat", handlers.Chat(svc))
	api.Post("/chat", handlers.Chat(svc))

	// History persistence
	api.Get("/messages", handlers.ListMessages(svc))
	api.Post("/messages", handlers.SaveMessages(svc))
	api.Post("/summarize", handlers.Summarize(svc))
	api.Post("/purge-hidden", handlers.PurgeHidden(svc))

	// Health check
	api.Get("/health", handlers.Health(svc))

	// WebSocket streaming variant of /chat
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(handlers.StreamChat(svc)))
}
