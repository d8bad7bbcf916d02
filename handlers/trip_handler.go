package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/JulienAjdenbaum/better-max-planner/config"
	"github.com/JulienAjdenbaum/better-max-planner/models"
	"github.com/JulienAjdenbaum/better-max-planner/search"
	"github.com/JulienAjdenbaum/better-max-planner/stations"
	"github.com/JulienAjdenbaum/better-max-planner/store"
)

const defaultStation = "PARIS (intramuros)"

// Handler exposes the planning core over JSON. The HTTP surface is a thin
// boundary; all search logic lives in the search package.
type Handler struct {
	Store     *store.TripStore
	Engine    *search.Engine
	Optimizer *search.Optimizer
	Groups    *stations.Index
	Settings  config.Settings
}

func New(ts *store.TripStore, engine *search.Engine, optimizer *search.Optimizer, groups *stations.Index, settings config.Settings) *Handler {
	return &Handler{
		Store:     ts,
		Engine:    engine,
		Optimizer: optimizer,
		Groups:    groups,
		Settings:  settings,
	}
}

// stringList accepts either a JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

type connectionsRequest struct {
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Origin             stringList `json:"origin"`
	Destination        stringList `json:"destination"`
	MaxLegs            int        `json:"max_legs"`
	AllowStationGroups *bool      `json:"allow_station_groups"`
}

// GetTripConnections handles POST /connections.
func (h *Handler) GetTripConnections(w http.ResponseWriter, r *http.Request) {
	var req connectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if req.StartDate == "" || req.EndDate == "" || len(req.Origin) == 0 || len(req.Destination) == 0 {
		sendErrorResponse(w, "Paramètres requis manquants.", http.StatusBadRequest)
		return
	}

	dates, err := dateWindow(req.StartDate, req.EndDate)
	if err != nil {
		sendErrorResponse(w, "Invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if len(dates) == 0 {
		sendErrorResponse(w, "start_date must not be after end_date", http.StatusBadRequest)
		return
	}

	allowGroups := true
	if req.AllowStationGroups != nil {
		allowGroups = *req.AllowStationGroups
	}

	log.Printf("Processing connections request: %v -> %v (%s to %s)",
		[]string(req.Origin), []string(req.Destination), req.StartDate, req.EndDate)

	ctx, cancel := context.WithTimeout(r.Context(), h.Settings.SearchTimeout)
	defer cancel()

	start := time.Now()
	routes, err := h.Engine.Search(ctx, search.Params{
		Dates:               dates,
		Origins:             req.Origin,
		Destinations:        req.Destination,
		MaxConnections:      req.MaxLegs,
		AllowGroupTransfers: allowGroups,
	})
	if err != nil {
		log.Printf("Connection search failed after %v: %v", time.Since(start), err)
		sendErrorResponse(w, "Search failed", http.StatusInternalServerError)
		return
	}
	log.Printf("Found %d connections in %v", len(routes), time.Since(start))

	if routes == nil {
		routes = []models.Route{}
	}
	sendJSON(w, map[string]interface{}{"success": true, "connections": routes})
}

type destinationsRequest struct {
	Date     string     `json:"date"`
	Dates    []string   `json:"dates"`
	Stations stringList `json:"stations"`
}

// GetDestinations handles POST /destinations.
func (h *Handler) GetDestinations(w http.ResponseWriter, r *http.Request) {
	var req destinationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	dates := req.Dates
	if len(dates) == 0 && req.Date != "" {
		dates = []string{req.Date}
	}
	if len(dates) == 0 || len(dates) > 2 {
		sendErrorResponse(w, "A date or a [start, end] date pair is required", http.StatusBadRequest)
		return
	}
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			sendErrorResponse(w, "Invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	stationList := []string(req.Stations)
	if len(stationList) == 0 {
		stationList = []string{defaultStation}
	}

	log.Printf("Processing destinations request for %v with stations: %v", dates, stationList)

	ctx, cancel := context.WithTimeout(r.Context(), h.Settings.SearchTimeout)
	defer cancel()

	start := time.Now()
	var allTrips []models.DayTrip
	for _, station := range stationList {
		trips, err := h.Optimizer.FindDayTrips(ctx, station, dates)
		if err != nil {
			log.Printf("Day trip search from %s failed after %v: %v", station, time.Since(start), err)
			sendErrorResponse(w, "Search failed", http.StatusInternalServerError)
			return
		}
		allTrips = append(allTrips, trips...)
	}

	destinations := search.AggregateDestinations(allTrips, h.Settings.InternationalAxe)
	log.Printf("Found %d destinations in %v", len(destinations), time.Since(start))

	sendJSON(w, map[string]interface{}{"success": true, "destinations": destinations})
}

// GetTowns handles GET /towns: every station in the inventory plus the
// configured group names, sorted.
func (h *Handler) GetTowns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	towns, err := h.Store.Towns(ctx)
	if err != nil {
		log.Printf("Towns query failed: %v", err)
		sendErrorResponse(w, "Database error", http.StatusInternalServerError)
		return
	}

	all := append(towns, h.Groups.GroupNames()...)
	sort.Strings(all)
	sendJSON(w, map[string]interface{}{"success": true, "towns": all})
}

func dateWindow(startDate, endDate string) ([]string, error) {
	d1, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, err
	}
	d2, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, err
	}
	var dates []string
	for d := d1; !d.After(d2); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

func sendJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func sendErrorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
