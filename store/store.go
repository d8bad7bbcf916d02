// Package store is the only code that reads the tgvmax table. Every query maps
// its result into typed records at this boundary.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/JulienAjdenbaum/better-max-planner/models"
)

const legColumns = `uid, date, origine, destination, heure_depart, heure_arrivee, train_no, axe, dispo`

// TripStore wraps the leg inventory. It holds no state beyond the connection
// pool and the excluded night axis.
type TripStore struct {
	db          *sql.DB
	excludedAxe string
}

func New(db *sql.DB, excludedAxe string) *TripStore {
	return &TripStore{db: db, excludedAxe: excludedAxe}
}

// matchCondition renders a column filter: equality for a single value, IN for
// several. The distinction mirrors the query plans the table is indexed for.
func matchCondition(column string, values []string, args *[]interface{}) string {
	if len(values) == 1 {
		*args = append(*args, values[0])
		return fmt.Sprintf("%s = $%d", column, len(*args))
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		*args = append(*args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(*args))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", "))
}

func (s *TripStore) scanLegs(rows *sql.Rows) []models.Leg {
	var legs []models.Leg
	for rows.Next() {
		var l models.Leg
		if err := rows.Scan(&l.UID, &l.Date, &l.Origin, &l.Destination,
			&l.Departure, &l.Arrival, &l.TrainNo, &l.Axe, &l.Dispo); err != nil {
			log.Printf("Skipping unreadable leg row: %v", err)
			continue
		}
		legs = append(legs, l)
	}
	return legs
}

// DirectLegs returns available legs going straight from one of the origins to
// one of the destinations on the given dates, ordered by departure time.
func (s *TripStore) DirectLegs(ctx context.Context, dates, origins, destinations []string) ([]models.Leg, error) {
	var args []interface{}
	originCond := matchCondition("origine", origins, &args)
	destCond := matchCondition("destination", destinations, &args)
	dateCond := matchCondition("date", dates, &args)
	args = append(args, s.excludedAxe)

	query := fmt.Sprintf(`
        SELECT %s
        FROM tgvmax
        WHERE %s
          AND %s
          AND %s
          AND dispo = 'OUI' AND axe <> $%d
        ORDER BY heure_depart`, legColumns, originCond, destCond, dateCond, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("direct legs query failed: %v", err)
	}
	defer rows.Close()

	legs := s.scanLegs(rows)
	return legs, rows.Err()
}

// CandidateLegs returns every available leg on the given dates that touches the
// requested origins or destinations. This is the pre-filtered working set the
// connection search extends chains over; legs touching neither end are pruned
// here rather than during the search.
func (s *TripStore) CandidateLegs(ctx context.Context, dates, origins, destinations []string) ([]models.Leg, error) {
	var args []interface{}
	dateCond := matchCondition("date", dates, &args)
	originCond := matchCondition("origine", origins, &args)
	destCond := matchCondition("destination", destinations, &args)
	args = append(args, s.excludedAxe)

	query := fmt.Sprintf(`
        SELECT %s
        FROM tgvmax
        WHERE %s
          AND dispo = 'OUI' AND axe <> $%d
          AND (%s OR %s)
        ORDER BY date, heure_depart`, legColumns, dateCond, len(args), originCond, destCond)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("candidate legs query failed: %v", err)
	}
	defer rows.Close()

	legs := s.scanLegs(rows)
	return legs, rows.Err()
}

// RoundTripRow pairs one outbound leg with one return leg of a candidate day
// trip, as returned by the round trip query.
type RoundTripRow struct {
	Destination       string
	OutboundDeparture string
	OutboundArrival   string
	ReturnDeparture   string
	ReturnArrival     string
	OutboundTrain     string
	ReturnTrain       string
	OutboundAxe       string
	ReturnAxe         string
}

// RoundTrips joins outbound legs from the station on outDate with return legs
// back to it on returnDate. Only availability, the night axis, the minimum
// departure hour and raw clock ordering are filtered here; rollover-aware
// validation happens in the optimizer.
func (s *TripStore) RoundTrips(ctx context.Context, station, outDate, returnDate, minDeparture string) ([]RoundTripRow, error) {
	query := `
        SELECT aller.destination,
               aller.heure_depart, aller.heure_arrivee,
               retour.heure_depart, retour.heure_arrivee,
               aller.train_no, retour.train_no,
               aller.axe, retour.axe
        FROM tgvmax AS aller
        JOIN tgvmax AS retour
          ON aller.destination = retour.origine
        WHERE aller.date = $1 AND aller.origine = $2
          AND aller.dispo = 'OUI' AND aller.axe <> $3
          AND retour.date = $4 AND retour.destination = $2
          AND retour.dispo = 'OUI' AND retour.axe <> $3
          AND aller.heure_arrivee < retour.heure_depart
          AND aller.heure_depart > $5
        ORDER BY aller.heure_depart, retour.heure_depart`

	rows, err := s.db.QueryContext(ctx, query, outDate, station, s.excludedAxe, returnDate, minDeparture)
	if err != nil {
		return nil, fmt.Errorf("round trips query failed: %v", err)
	}
	defer rows.Close()

	var trips []RoundTripRow
	for rows.Next() {
		var t RoundTripRow
		if err := rows.Scan(&t.Destination,
			&t.OutboundDeparture, &t.OutboundArrival,
			&t.ReturnDeparture, &t.ReturnArrival,
			&t.OutboundTrain, &t.ReturnTrain,
			&t.OutboundAxe, &t.ReturnAxe); err != nil {
			log.Printf("Skipping unreadable round trip row: %v", err)
			continue
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Towns returns every distinct station appearing as an origin or a destination,
// sorted.
func (s *TripStore) Towns(ctx context.Context) ([]string, error) {
	query := `
        SELECT DISTINCT origine AS town FROM tgvmax
        UNION
        SELECT DISTINCT destination AS town FROM tgvmax`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("towns query failed: %v", err)
	}
	defer rows.Close()

	var towns []string
	for rows.Next() {
		var town string
		if err := rows.Scan(&town); err != nil {
			log.Printf("Skipping unreadable town row: %v", err)
			continue
		}
		towns = append(towns, town)
	}
	sort.Strings(towns)
	return towns, rows.Err()
}
