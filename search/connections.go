// Package search implements the trip planning over the leg inventory: one-way
// connection search, same-day round trip optimization and destination
// aggregation.
package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/JulienAjdenbaum/better-max-planner/config"
	"github.com/JulienAjdenbaum/better-max-planner/models"
	"github.com/JulienAjdenbaum/better-max-planner/stations"
	"github.com/JulienAjdenbaum/better-max-planner/store"
	"github.com/JulienAjdenbaum/better-max-planner/utils"
)

// Engine finds one-way journeys with 0..N connections across the leg inventory.
type Engine struct {
	store    *store.TripStore
	groups   *stations.Index
	settings config.Settings
}

func NewEngine(ts *store.TripStore, groups *stations.Index, settings config.Settings) *Engine {
	return &Engine{store: ts, groups: groups, settings: settings}
}

// Params describes one connection search request. MaxConnections zero means
// shortest-first: try direct legs only, then escalate one connection at a time.
type Params struct {
	Dates               []string
	Origins             []string
	Destinations        []string
	MaxConnections      int
	AllowGroupTransfers bool
}

// Search enumerates valid journeys from the origins to the destinations on the
// given dates, sorted ascending by first-leg departure.
func (e *Engine) Search(ctx context.Context, p Params) ([]models.Route, error) {
	if len(p.Dates) == 0 || len(p.Origins) == 0 || len(p.Destinations) == 0 {
		return nil, fmt.Errorf("dates, origins and destinations are all required")
	}

	origins := e.groups.Expand(p.Origins)
	destinations := e.groups.Expand(p.Destinations)

	if p.MaxConnections <= 0 {
		start := time.Now()
		direct, err := e.store.DirectLegs(ctx, p.Dates, origins, destinations)
		if err != nil {
			return nil, err
		}
		if len(direct) > 0 {
			log.Printf("Found %d direct legs in %v", len(direct), time.Since(start))
			return directRoutes(direct), nil
		}
		log.Printf("No direct connections found, trying with 1 connection")
		return e.searchWithConnections(ctx, p.Dates, origins, destinations, 1, p.AllowGroupTransfers)
	}
	return e.searchWithConnections(ctx, p.Dates, origins, destinations, p.MaxConnections, p.AllowGroupTransfers)
}

func directRoutes(legs []models.Leg) []models.Route {
	routes := make([]models.Route, 0, len(legs))
	for _, l := range legs {
		duration, err := utils.LegDuration(l.Departure, l.Arrival)
		if err != nil {
			log.Printf("Skipping direct leg uid=%d with bad times: %v", l.UID, err)
			continue
		}
		routes = append(routes, models.Route{
			TrainList: []models.RouteLeg{{
				Origin:      l.Origin,
				Departure:   l.Departure,
				Destination: l.Destination,
				Arrival:     l.Arrival,
				TrainNo:     l.TrainNo,
			}},
			RouteName: l.Origin + " -> " + l.Destination,
			Duration:  utils.FormatDuration(duration),
			Date:      l.Date,
		})
	}
	sortRoutes(routes)
	return routes
}

// searchWithConnections runs the bounded-depth graph search, escalating the
// connection count one step at a time until routes appear or the ceiling is hit.
func (e *Engine) searchWithConnections(ctx context.Context, dates, origins, destinations []string, depth int, allowGroups bool) ([]models.Route, error) {
	start := time.Now()
	legs, err := e.store.CandidateLegs(ctx, dates, origins, destinations)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d candidate legs in %v", len(legs), time.Since(start))

	originSet := toSet(origins)
	destSet := toSet(destinations)

	for ; depth <= e.settings.MaxConnectionDepth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chains := e.expandChains(legs, originSet, destSet, depth, allowGroups)
		if len(chains) == 0 {
			log.Printf("No routes with %d connection(s), increasing to %d", depth, depth+1)
			continue
		}
		log.Printf("Found %d route candidates with up to %d connection(s) in %v",
			len(chains), depth, time.Since(start))
		routes := e.assembleRoutes(chains, legs)
		sortRoutes(routes)
		return routes, nil
	}
	return []models.Route{}, nil
}

// expandChains grows partial routes leg by leg and collects every chain ending
// at a requested destination. A chain may use at most maxConnections extensions
// beyond its first leg. Chains are leg index sequences into legs; the leg IDs
// stay a slice until presentation.
func (e *Engine) expandChains(legs []models.Leg, originSet, destSet map[string]bool, maxConnections int, allowGroups bool) [][]int {
	var results [][]int
	var frontier [][]int
	for i, l := range legs {
		if originSet[l.Origin] {
			frontier = append(frontier, []int{i})
		}
	}

	for level := 0; len(frontier) > 0; level++ {
		var next [][]int
		for _, chain := range frontier {
			last := legs[chain[len(chain)-1]]
			if destSet[last.Destination] {
				results = append(results, chain)
			}
			if level >= maxConnections {
				continue
			}
			for i, candidate := range legs {
				if e.canExtend(last, candidate, allowGroups) {
					extended := make([]int, len(chain), len(chain)+1)
					copy(extended, chain)
					next = append(next, append(extended, i))
				}
			}
		}
		frontier = next
	}
	return results
}

// canExtend reports whether next can follow the current chain end on the same
// travel date: either a direct continuation departing after the arrival, or a
// cross-group transfer with at least the configured minimum transfer minutes.
func (e *Engine) canExtend(last, next models.Leg, allowGroups bool) bool {
	if next.Date != last.Date {
		return false
	}
	if next.Origin == last.Destination {
		return next.Departure > last.Arrival
	}
	if !allowGroups {
		return false
	}
	minTransfer, ok := e.groups.MinTransfer(last.Destination, next.Origin)
	if !ok {
		return false
	}
	dep, err := utils.ParseClock(next.Departure)
	if err != nil {
		return false
	}
	arr, err := utils.ParseClock(last.Arrival)
	if err != nil {
		return false
	}
	return dep-arr >= minTransfer
}

func (e *Engine) assembleRoutes(chains [][]int, legs []models.Leg) []models.Route {
	routes := make([]models.Route, 0, len(chains))
	for _, chain := range chains {
		route, ok := e.assembleRoute(chain, legs)
		if !ok {
			continue
		}
		routes = append(routes, route)
	}
	return routes
}

// assembleRoute reconstructs the full train list for one chain, inserting a
// virtual transfer wherever consecutive legs change stations within a group,
// and computes the total duration with midnight rollover. A route that rolls
// past midnight is truncated at the overnight leg; it is dropped when the
// truncation point is not the chain's destination.
func (e *Engine) assembleRoute(chain []int, legs []models.Leg) (models.Route, bool) {
	first := legs[chain[0]]
	final := legs[chain[len(chain)-1]]

	name := first.Origin
	var trainList []models.RouteLeg
	var prev *models.Leg
	for _, i := range chain {
		leg := legs[i]
		if prev != nil && leg.Origin != prev.Destination {
			minutes, _ := e.groups.MinTransfer(prev.Destination, leg.Origin)
			trainList = append(trainList, models.RouteLeg{
				Origin:          prev.Destination,
				Destination:     leg.Origin,
				Transfer:        true,
				TransferMinutes: minutes,
			})
			name += " -> " + leg.Origin
		}
		trainList = append(trainList, models.RouteLeg{
			Origin:      leg.Origin,
			Departure:   leg.Departure,
			Destination: leg.Destination,
			Arrival:     leg.Arrival,
			TrainNo:     leg.TrainNo,
		})
		name += " -> " + leg.Destination
		prevLeg := leg
		prev = &prevLeg
	}

	totalMinutes := 0
	cursor := -1 // arrival of the previous real leg, in minutes from the nominal day start
	var kept []models.RouteLeg
	lastDestination := ""
	for _, entry := range trainList {
		if entry.Transfer {
			kept = append(kept, entry)
			continue
		}
		dep, err := utils.ParseClock(entry.Departure)
		if err != nil {
			log.Printf("Skipping route %s with bad departure %q: %v", name, entry.Departure, err)
			return models.Route{}, false
		}
		arr, err := utils.ParseClock(entry.Arrival)
		if err != nil {
			log.Printf("Skipping route %s with bad arrival %q: %v", name, entry.Arrival, err)
			return models.Route{}, false
		}
		if cursor >= 0 {
			if dep < cursor {
				dep += utils.MinutesPerDay
			}
			totalMinutes += dep - cursor
		}
		if arr < dep {
			// The leg rolls past midnight: count it in full, then cut the
			// route here since later legs cannot be reached on this day.
			arr += utils.MinutesPerDay
			totalMinutes += arr - dep
			kept = append(kept, entry)
			lastDestination = entry.Destination
			break
		}
		totalMinutes += arr - dep
		cursor = arr
		kept = append(kept, entry)
		lastDestination = entry.Destination
	}

	if lastDestination != final.Destination {
		return models.Route{}, false
	}

	return models.Route{
		TrainList: kept,
		RouteName: name,
		Duration:  utils.FormatDuration(totalMinutes),
		Date:      first.Date,
	}, true
}

func sortRoutes(routes []models.Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Date != routes[j].Date {
			return routes[i].Date < routes[j].Date
		}
		return routes[i].TrainList[0].Departure < routes[j].TrainList[0].Departure
	})
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
