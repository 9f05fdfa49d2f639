package routing

import "context"

// Repository reads the delivery stops a route is built from.
type Repository interface {
	// ListActiveDriverStops returns the driver's ASSIGNED and
	// IN_TRANSIT deliveries that have drop-off coordinates.
	ListActiveDriverStops(ctx context.Context, driverID string) ([]Stop, error)
}
