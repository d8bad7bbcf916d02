package models

// Availability tokens used by the upstream feed.
const (
	DispoAvailable   = "OUI"
	DispoUnavailable = "NON"
)

// Leg is one scheduled train segment on one service date, as stored in the tgvmax
// table. Times are wall-clock "HH:MM" with no date component; a leg whose arrival
// reads earlier than its departure crosses midnight.
type Leg struct {
	UID         int64
	Date        string // YYYY-MM-DD
	Origin      string
	Destination string
	Departure   string // HH:MM
	Arrival     string // HH:MM
	TrainNo     string
	Axe         string
	Dispo       string
}

// Available reports whether the leg carries the feed's available token.
func (l Leg) Available() bool {
	return l.Dispo == DispoAvailable
}
