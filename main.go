package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/JulienAjdenbaum/better-max-planner/config"
	"github.com/JulienAjdenbaum/better-max-planner/handlers"
	"github.com/JulienAjdenbaum/better-max-planner/middleware"
	"github.com/JulienAjdenbaum/better-max-planner/search"
	"github.com/JulienAjdenbaum/better-max-planner/stations"
	"github.com/JulienAjdenbaum/better-max-planner/store"
)

type HealthResponse struct {
	Status   string `json:"status"`
	DBStatus string `json:"db_status"`
	Error    string `json:"error,omitempty"`
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}

	if config.DB == nil {
		response.Status = "error"
		response.DBStatus = "not_initialized"
		response.Error = "Database connection not initialized"
	} else if err := config.DB.PingContext(r.Context()); err != nil {
		response.Status = "error"
		response.DBStatus = "connection_error"
		response.Error = err.Error()
	} else {
		response.DBStatus = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func main() {
	startTime := time.Now()
	log.Printf("Starting server initialization at %s", startTime.Format(time.RFC3339))

	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("No PORT environment variable found, using default: %s", port)
	}

	log.Println("Initializing PostgreSQL database...")
	if err := config.InitDBWithRetry(5); err != nil {
		log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	log.Println("PostgreSQL database initialized successfully")
	defer config.CloseDB()

	settings := config.LoadSettings()
	groups := stations.Load(settings.StationGroupsPath)
	tripStore := store.New(config.DB, settings.ExcludedAxe)
	engine := search.NewEngine(tripStore, groups, settings)
	optimizer := search.NewOptimizer(tripStore, groups, settings)
	handler := handlers.New(tripStore, engine, optimizer, groups, settings)

	r := mux.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With", "Origin"},
		MaxAge:         86400,
	})

	r.Use(corsHandler.Handler)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/connections", handler.GetTripConnections).Methods("POST", "OPTIONS")
	api.HandleFunc("/destinations", handler.GetDestinations).Methods("POST", "OPTIONS")
	api.HandleFunc("/towns", handler.GetTowns).Methods("GET")
	api.HandleFunc("/health", healthCheck).Methods("GET")
	log.Println("Routes registered successfully")

	srv := &http.Server{
		Handler:           r,
		Addr:              ":" + port,
		WriteTimeout:      60 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Starting server on port %s...", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutdown signal received")
	case err := <-serverErrors:
		log.Printf("Server error received: %v", err)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	} else {
		log.Println("Server shutdown completed successfully")
	}
}
