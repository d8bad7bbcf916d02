// Command cleanup removes legs that already departed. Designed to run from cron
// every few minutes so the search never returns trains that left the station.
package main

import (
	"context"
	"log"
	"time"

	"github.com/JulienAjdenbaum/better-max-planner/config"
	"github.com/JulienAjdenbaum/better-max-planner/repair"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	if err := config.InitDBWithRetry(3); err != nil {
		log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	defer config.CloseDB()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := repair.New(config.DB).RemovePastLegs(ctx, time.Now())
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	log.Printf("Cleanup successful: removed %d past legs", removed)
}
