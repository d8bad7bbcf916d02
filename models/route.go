package models

import "encoding/json"

// TransferLabel marks a virtual transfer entry in a route's train list.
const TransferLabel = "Correspondance"

// RouteLeg is one entry of a route's train list: either a real train segment or a
// virtual transfer between two stations of the same group. Transfer entries carry
// no train and no clock times, only the configured minimum transfer minutes.
type RouteLeg struct {
	Origin          string
	Departure       string
	Destination     string
	Arrival         string
	TrainNo         string
	Transfer        bool
	TransferMinutes int
}

// MarshalJSON renders the wire format expected by the front end:
// [origin, departure, destination, arrival, train_no] for a train segment,
// [origin, "", destination, "", "Correspondance", minutes] for a transfer.
func (l RouteLeg) MarshalJSON() ([]byte, error) {
	if l.Transfer {
		return json.Marshal([]interface{}{l.Origin, "", l.Destination, "", TransferLabel, l.TransferMinutes})
	}
	return json.Marshal([]interface{}{l.Origin, l.Departure, l.Destination, l.Arrival, l.TrainNo})
}

// Route is a complete journey from a requested origin to a requested destination.
// Routes are derived per request and never persisted.
type Route struct {
	TrainList []RouteLeg `json:"train_list"`
	RouteName string     `json:"route_name"`
	Duration  string     `json:"duration"`
	Date      string     `json:"date"`
}
