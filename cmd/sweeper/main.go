package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"tripdesk/internal/config"
	"tripdesk/internal/database"
	"tripdesk/internal/modules/sweeper"
	"tripdesk/internal/repository"
)

// One-shot expiry sweep for cron or manual operation; the api binary runs
// the same sweep on its own schedule.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	svc := sweeper.NewService(repository.NewDraftRepository(db), cfg.HoldWindow, log.Printf)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := svc.Run(ctx)
	if err != nil {
		log.Fatalf("draft sweep failed: %v", err)
	}
	log.Printf("draft sweep completed: expired=%d window=%s", n, cfg.HoldWindow)
}
