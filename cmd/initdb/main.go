// initdb creates the schema and optionally seeds persona facts:
//
//	initdb [key=value ...]
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/mondaychat/monday/internal/config"
	"github.com/mondaychat/monday/internal/database"
	"github.com/mondaychat/monday/internal/database/repositories"
)

func main() {
	dsn := os.Getenv("MONDAY_DATABASE_URL")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("MONDAY_DATABASE_URL is required")
	}
	cfg := config.DatabaseConfig{DSN: dsn}

	if err := database.RunMigrations(cfg); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Println("Schema created")

	if len(os.Args) < 2 {
		return
	}

	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	facts := repositories.NewFactRepository(db.DB)
	for _, arg := range os.Args[1:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			log.Printf("Skipping %q: expected key=value", arg)
			continue
		}
		if err := facts.UpsertFact(context.Background(), key, value); err != nil {
			log.Fatal("Failed to seed fact: ", err)
		}
		log.Printf("Seeded fact %s", key)
	}
}
