package routing

import "github.com/google/uuid"

// Priority weights a stop during nearest-neighbor selection. Higher
// priority means a smaller weight and therefore an earlier visit.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Weight returns the distance multiplier for the priority. Unknown or
// empty priorities weigh the same as LOW.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 0.5
	case PriorityMedium:
		return 0.75
	default:
		return 1.0
	}
}

// Stop is one delivery point to be sequenced into a route.
type Stop struct {
	DeliveryID uuid.UUID `json:"delivery_id,omitempty"`
	OrderID    uuid.UUID `json:"order_id,omitempty"`
	Label      string    `json:"label,omitempty"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Priority   Priority  `json:"priority,omitempty"`
}

// Location is a bare coordinate pair, used as an optional route start.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OptimizeRequest is the payload for ad-hoc route optimization.
type OptimizeRequest struct {
	Stops []Stop    `json:"stops"`
	Start *Location `json:"start,omitempty"`
}

// DriverRouteRequest optionally overrides the route start for a driver.
type DriverRouteRequest struct {
	Start *Location `json:"start,omitempty"`
}

// Route is an ordered visiting sequence with aggregate figures.
// TotalDistanceKm sums consecutive-pair distances; EstimatedMinutes
// assumes a fixed 30 km/h average speed.
type Route struct {
	Stops            []Stop  `json:"stops"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	EstimatedMinutes float64 `json:"estimated_minutes"`
}
