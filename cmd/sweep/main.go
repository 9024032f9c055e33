package main

// One-shot sweep over unanalyzed messages and conversations:
//   go run ./cmd/sweep

import (
	"context"
	"log"
	"os"
	"time"

	"support-backend/internal/bootstrap"
	"support-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Printf("bootstrap error: %v", err)
		os.Exit(1)
	}

	app.Queue.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := app.Sweeper.Run(ctx)
	if err != nil {
		log.Printf("sweep error: %v", err)
		os.Exit(1)
	}
	log.Printf("sweep scheduled %d messages and %d conversations",
		report.MessagesScheduled, report.ConversationsScheduled)

	// Let the worker drain what the sweep enqueued before exiting.
	waitForDrain(ctx, app)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func waitForDrain(ctx context.Context, app *bootstrap.App) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := app.Queue.Status()
			if stats.Pending == 0 && stats.Processing == 0 {
				return
			}
		}
	}
}
