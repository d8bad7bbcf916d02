package search

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/JulienAjdenbaum/better-max-planner/config"
	"github.com/JulienAjdenbaum/better-max-planner/models"
	"github.com/JulienAjdenbaum/better-max-planner/stations"
	"github.com/JulienAjdenbaum/better-max-planner/store"
	"github.com/JulienAjdenbaum/better-max-planner/utils"
)

// Optimizer finds same-day round trips maximizing time spent at the destination.
type Optimizer struct {
	store    *store.TripStore
	groups   *stations.Index
	settings config.Settings
}

func NewOptimizer(ts *store.TripStore, groups *stations.Index, settings config.Settings) *Optimizer {
	return &Optimizer{store: ts, groups: groups, settings: settings}
}

// FindDayTrips returns every round trip candidate from the station. dates holds
// either one date (same-day return) or two (depart day one, return day two). A
// station group fans out to its members, merged and re-sorted globally.
func (o *Optimizer) FindDayTrips(ctx context.Context, station string, dates []string) ([]models.DayTrip, error) {
	outDate := dates[0]
	returnDate := dates[len(dates)-1]

	if members := o.groups.Members(station); members != nil {
		log.Printf("Expanding station group %q to %d member stations", station, len(members))
		var all []models.DayTrip
		for _, member := range members {
			trips, err := o.findFromStation(ctx, member, outDate, returnDate)
			if err != nil {
				return nil, err
			}
			all = append(all, trips...)
		}
		sortDayTrips(all)
		return all, nil
	}
	return o.findFromStation(ctx, station, outDate, returnDate)
}

func (o *Optimizer) findFromStation(ctx context.Context, station, outDate, returnDate string) ([]models.DayTrip, error) {
	start := time.Now()
	rows, err := o.store.RoundTrips(ctx, station, outDate, returnDate, o.settings.MinDeparture)
	if err != nil {
		return nil, err
	}

	trips := make([]models.DayTrip, 0, len(rows))
	for _, row := range rows {
		trip, ok := buildDayTrip(row)
		if !ok {
			continue
		}
		trips = append(trips, trip)
	}
	sortDayTrips(trips)
	log.Printf("Found %d day trips from %s in %v", len(trips), station, time.Since(start))
	return trips, nil
}

// buildDayTrip normalizes a raw round trip pair for midnight rollover and
// applies the day-trip validity rules: the outbound may not span a full day and
// the return must leave on the outbound's calendar day.
func buildDayTrip(row store.RoundTripRow) (models.DayTrip, bool) {
	outDep, err := utils.ParseClock(row.OutboundDeparture)
	if err != nil {
		log.Printf("Skipping round trip to %s: %v", row.Destination, err)
		return models.DayTrip{}, false
	}
	outArr, err := utils.ParseClock(row.OutboundArrival)
	if err != nil {
		log.Printf("Skipping round trip to %s: %v", row.Destination, err)
		return models.DayTrip{}, false
	}
	retDep, err := utils.ParseClock(row.ReturnDeparture)
	if err != nil {
		log.Printf("Skipping round trip to %s: %v", row.Destination, err)
		return models.DayTrip{}, false
	}
	retArr, err := utils.ParseClock(row.ReturnArrival)
	if err != nil {
		log.Printf("Skipping round trip to %s: %v", row.Destination, err)
		return models.DayTrip{}, false
	}

	// Roll overnight legs onto the next day, then the whole return pair when it
	// leaves before the outbound lands.
	if outArr < outDep {
		outArr += utils.MinutesPerDay
	}
	if retArr < retDep {
		retArr += utils.MinutesPerDay
	}
	if retDep < outArr {
		retDep += utils.MinutesPerDay
		retArr += utils.MinutesPerDay
	}

	if outArr-outDep >= utils.MinutesPerDay {
		return models.DayTrip{}, false
	}
	if retDep >= utils.MinutesPerDay {
		// Return no longer departs on the outbound's calendar day
		return models.DayTrip{}, false
	}

	outTravel := outArr - outDep
	retTravel := retArr - retDep
	timeAtDestination := retDep - outArr

	return models.DayTrip{
		Destination:          row.Destination,
		OutboundDeparture:    row.OutboundDeparture,
		OutboundArrival:      row.OutboundArrival,
		ReturnDeparture:      row.ReturnDeparture,
		ReturnArrival:        row.ReturnArrival,
		OutboundTrain:        row.OutboundTrain,
		ReturnTrain:          row.ReturnTrain,
		OutboundAxe:          row.OutboundAxe,
		ReturnAxe:            row.ReturnAxe,
		OutboundTravelTime:   utils.FormatDuration(outTravel),
		ReturnTravelTime:     utils.FormatDuration(retTravel),
		TotalTravelTime:      utils.FormatDuration(outTravel + retTravel),
		TimeAtDestination:    utils.FormatDuration(timeAtDestination),
		TimeAtDestinationMin: timeAtDestination,
	}, true
}

func sortDayTrips(trips []models.DayTrip) {
	sort.SliceStable(trips, func(i, j int) bool {
		return trips[i].TimeAtDestinationMin > trips[j].TimeAtDestinationMin
	})
}
