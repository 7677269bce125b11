package models

import "time"

// Direction values used by the MovGR API. The line runs between the
// Albolote and Armilla termini, so every arrival heads one way or the other.
const (
	DirectionArmilla  = "Armilla"
	DirectionAlbolote = "Albolote"
)

// Opposite returns the other terminus for a direction.
// Unknown inputs are returned unchanged.
func Opposite(direction string) string {
	switch direction {
	case DirectionArmilla:
		return DirectionAlbolote
	case DirectionAlbolote:
		return DirectionArmilla
	}
	return direction
}

// Stop represents a station on the line.
type Stop struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// Arrival is one upcoming train at a stop.
type Arrival struct {
	Minutes   int    `json:"minutos"`
	Direction string `json:"direccion"`
}

// StopArrivals groups the upcoming trains at one stop, as returned by
// the whole-line endpoint.
type StopArrivals struct {
	Stop     Stop      `json:"parada"`
	Upcoming []Arrival `json:"proximos"`
}

// ArrivalsResponse is the per-stop endpoint payload.
type ArrivalsResponse struct {
	Upcoming []Arrival `json:"proximos"`
}

// NextInDirection returns the minutes until the soonest arrival heading
// the given way, or false when no train that way is predicted.
func NextInDirection(arrivals []Arrival, direction string) (int, bool) {
	best, found := 0, false
	for _, a := range arrivals {
		if a.Direction != direction {
			continue
		}
		if !found || a.Minutes < best {
			best = a.Minutes
			found = true
		}
	}
	return best, found
}

// LineStatus is the ops-API summary for one stop: the next train each way.
type LineStatus struct {
	Stop       Stop      `json:"stop"`
	ToArmilla  *int      `json:"to_armilla"`
	ToAlbolote *int      `json:"to_albolote"`
	AsOf       time.Time `json:"as_of"`
}
