package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mondaychat/monday/internal/api"
	"github.com/mondaychat/monday/internal/config"
	"github.com/mondaychat/monday/internal/database"
	"github.com/mondaychat/monday/internal/database/repositories"
	"github.com/mondaychat/monday/internal/llm"
	"github.com/mondaychat/monday/internal/services"
	"github.com/mondaychat/monday/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load configuration. Missing store address or LLM credential is a
	// startup failure, not a degraded mode.
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to the session/message store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	cancel()
	defer rdb.Close()

	// The relational database is optional: without it the service runs
	// with empty fact sets and no durable flush.
	var facts services.FactSource
	var sink services.MessageSink
	if cfg.Database.DSN != "" {
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			log.WithError(err).Warn("Database unreachable, facts and durable flush disabled")
		} else {
			defer db.Close()
			if err := database.RunMigrations(cfg.Database); err != nil {
				log.WithError(err).Fatal("Failed to run migrations")
			}
			facts = repositories.NewFactRepository(db.DB)
			sink = repositories.NewMessageRepository(db.DB)
		}
	} else {
		log.Warn("No database configured, facts and durable flush disabled")
	}

	provider, err := llm.NewOpenAIProvider(cfg.LLM)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize LLM provider")
	}

	gateway := store.NewGateway(rdb, cfg.Chat.MaxItems, cfg.Chat.TTL, log)
	svc := services.NewServices(cfg, gateway, provider, facts, sink, log)

	app := fiber.New(fiber.Config{
		AppName:      "Monday",
		ErrorHandler: apiErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     getOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	api.SetupRoutes(app, svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.WithField("addr", addr).Info("Monday starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

// apiErrorHandler converts anything that escapes a handler into the
// standard error envelope.
func apiErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"ok":    false,
		"error": err.Error(),
	})
}

func getOrigins() string {
	origins := os.Getenv("MONDAY_CORS_ORIGINS")
	if origins == "" {
		return "http://localhost:3000,http://localhost:5173"
	}
	return origins
}
