// Command optimize repairs the leg inventory's availability flags and deletes
// what stays unavailable. Meant to run right after each data refresh, away from
// peak query traffic.
package main

import (
	"context"
	"log"
	"os"
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	engine := repair.New(config.DB)
	summary, err := engine.Optimize(ctx)
	if err != nil {
		log.Printf("Error during database optimization: %v", err)
		os.Exit(1)
	}

	log.Printf("Database optimization completed successfully")
	log.Printf("Results: %+d available trips", summary.NewAvailableTrips)
	log.Printf("Coupure fixes: %d", summary.CoupureFixes)
	log.Printf("Soudure fixes: %d", summary.SoudureFixes)
	log.Printf("Trips deleted: %d", summary.TripsDeleted)
	log.Printf("Final availability: %.1f%%", summary.FinalAvailabilityRate)
	log.Printf("Total time: %v", summary.TotalTime)
}
