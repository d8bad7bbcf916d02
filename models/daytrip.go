package models

// DayTrip is one same-day round trip candidate from an origin station.
type DayTrip struct {
	Destination          string `json:"destination"`
	OutboundDeparture    string `json:"outbound_departure"`
	OutboundArrival      string `json:"outbound_arrival"`
	ReturnDeparture      string `json:"return_departure"`
	ReturnArrival        string `json:"return_arrival"`
	OutboundTrain        string `json:"outbound_train"`
	ReturnTrain          string `json:"return_train"`
	OutboundAxe          string `json:"outbound_axe"`
	ReturnAxe            string `json:"return_axe"`
	OutboundTravelTime   string `json:"outbound_travel_time"`
	ReturnTravelTime     string `json:"return_travel_time"`
	TotalTravelTime      string `json:"total_travel_time"`
	TimeAtDestination    string `json:"time_at_destination"`
	TimeAtDestinationMin int    `json:"time_at_destination_minutes"`
}

// TripOption is one deduplicated outbound or return choice for a destination.
type TripOption struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	TrainNo   string `json:"train_no"`
	Axe       string `json:"axe"`
}

// DestinationSummary aggregates every day-trip candidate for one destination.
// MainAxe is empty when no representative axis can be determined.
type DestinationSummary struct {
	Destination          string       `json:"destination"`
	Trips                []DayTrip    `json:"trips"`
	OutboundTrips        []TripOption `json:"outbound_trips"`
	ReturnTrips          []TripOption `json:"return_trips"`
	AvgTravelTime        string       `json:"avg_travel_time"`
	MaxTimeAtDestination string       `json:"max_time_at_destination"`
	MainAxe              string       `json:"main_axe"`
}
