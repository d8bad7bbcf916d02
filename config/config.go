package config

import (
	"os"
	"strconv"
	"time"
)

// Settings carries the process-wide search and maintenance tuning. It is built once
// at startup and handed to the components that need it.
type Settings struct {
	ExcludedAxe        string        // night-only service axis, never searchable
	InternationalAxe   string        // demoted when picking a destination's main axis
	MinDeparture       string        // earliest outbound departure for day trips, "HH:MM"
	MaxConnectionDepth int           // hard ceiling on automatic connection escalation
	SearchTimeout      time.Duration // wall-clock bound on one connection search
	StationGroupsPath  string        // station group configuration file
}

func LoadSettings() Settings {
	return Settings{
		ExcludedAxe:        getEnvWithDefault("EXCLUDED_AXE", "IC NUIT"),
		InternationalAxe:   getEnvWithDefault("INTERNATIONAL_AXE", "INTERNATIONAL"),
		MinDeparture:       getEnvWithDefault("MIN_DEPARTURE", "10:00"),
		MaxConnectionDepth: getEnvAsInt("MAX_CONNECTION_DEPTH", 5),
		SearchTimeout:      time.Duration(getEnvAsInt("SEARCH_TIMEOUT_SECONDS", 30)) * time.Second,
		StationGroupsPath:  getEnvWithDefault("STATION_GROUPS_PATH", "config/station_groups.json"),
	}
}

// Helper functions
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
