package search

import (
	"math"
	"sort"

	"github.com/JulienAjdenbaum/better-max-planner/models"
	"github.com/JulienAjdenbaum/better-max-planner/utils"
)

// AggregateDestinations groups raw day trip candidates by destination and
// computes the presentation summary: deduplicated outbound/return choices, mean
// travel time, maximum time at destination and the main axis. internationalAxe
// names the axis demoted when picking the main one. Destinations come back
// sorted descending by maximum time at destination.
func AggregateDestinations(trips []models.DayTrip, internationalAxe string) []models.DestinationSummary {
	type aggregate struct {
		summary      models.DestinationSummary
		travelTimes  []int
		timesAtDest  []int
		axes         []string
		outboundSeen map[string]bool
		returnSeen   map[string]bool
	}

	grouped := make(map[string]*aggregate)
	var order []string
	for _, trip := range trips {
		agg, ok := grouped[trip.Destination]
		if !ok {
			agg = &aggregate{
				summary:      models.DestinationSummary{Destination: trip.Destination},
				outboundSeen: make(map[string]bool),
				returnSeen:   make(map[string]bool),
			}
			grouped[trip.Destination] = agg
			order = append(order, trip.Destination)
		}

		agg.summary.Trips = append(agg.summary.Trips, trip)
		agg.travelTimes = append(agg.travelTimes, utils.ParseDuration(trip.TotalTravelTime))
		agg.timesAtDest = append(agg.timesAtDest, trip.TimeAtDestinationMin)
		agg.axes = append(agg.axes, trip.OutboundAxe, trip.ReturnAxe)

		outKey := trip.OutboundDeparture + "-" + trip.OutboundArrival
		if !agg.outboundSeen[outKey] {
			agg.outboundSeen[outKey] = true
			agg.summary.OutboundTrips = append(agg.summary.OutboundTrips, models.TripOption{
				Departure: trip.OutboundDeparture,
				Arrival:   trip.OutboundArrival,
				TrainNo:   trip.OutboundTrain,
				Axe:       trip.OutboundAxe,
			})
		}
		retKey := trip.ReturnDeparture + "-" + trip.ReturnArrival
		if !agg.returnSeen[retKey] {
			agg.returnSeen[retKey] = true
			agg.summary.ReturnTrips = append(agg.summary.ReturnTrips, models.TripOption{
				Departure: trip.ReturnDeparture,
				Arrival:   trip.ReturnArrival,
				TrainNo:   trip.ReturnTrain,
				Axe:       trip.ReturnAxe,
			})
		}
	}

	summaries := make([]models.DestinationSummary, 0, len(order))
	maxMinutes := make(map[string]int, len(order))
	for _, dest := range order {
		agg := grouped[dest]

		sum := 0
		for _, t := range agg.travelTimes {
			sum += t
		}
		avg := int(math.Round(float64(sum) / float64(len(agg.travelTimes))))
		max := agg.timesAtDest[0]
		for _, t := range agg.timesAtDest[1:] {
			if t > max {
				max = t
			}
		}
		agg.summary.AvgTravelTime = utils.FormatDuration(avg)
		agg.summary.MaxTimeAtDestination = utils.FormatDuration(max)
		maxMinutes[dest] = max

		sort.Slice(agg.summary.OutboundTrips, func(i, j int) bool {
			return agg.summary.OutboundTrips[i].Departure < agg.summary.OutboundTrips[j].Departure
		})
		sort.Slice(agg.summary.ReturnTrips, func(i, j int) bool {
			return agg.summary.ReturnTrips[i].Departure < agg.summary.ReturnTrips[j].Departure
		})

		agg.summary.MainAxe = mainAxe(agg.axes, internationalAxe)
		summaries = append(summaries, agg.summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return maxMinutes[summaries[i].Destination] > maxMinutes[summaries[j].Destination]
	})
	return summaries
}

// mainAxe picks the destination's representative axis: the most frequent one,
// except that the international axis only wins when it is the sole axis present.
// Returns empty when nothing representative exists.
func mainAxe(axes []string, internationalAxe string) string {
	counts := make(map[string]int)
	for _, axe := range axes {
		if axe != "" {
			counts[axe]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	if len(counts) == 1 && counts[internationalAxe] > 0 {
		return internationalAxe
	}

	best := ""
	bestCount := 0
	for axe, count := range counts {
		if axe == internationalAxe {
			continue
		}
		if count > bestCount || (count == bestCount && axe < best) {
			best = axe
			bestCount = count
		}
	}
	return best
}
