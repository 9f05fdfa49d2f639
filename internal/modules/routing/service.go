package routing

import (
	"context"
	"fmt"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/errs"
)

// Service defines the route optimization business logic.
type Service interface {
	// Optimize sequences an arbitrary set of stops.
	Optimize(ctx context.Context, req OptimizeRequest) (*Route, error)

	// OptimizeDriverRoute builds a route over the driver's active
	// deliveries, all weighted MEDIUM.
	OptimizeDriverRoute(ctx context.Context, driverID string, start *Location) (*Route, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Optimize(ctx context.Context, req OptimizeRequest) (*Route, error) {
	for i, stop := range req.Stops {
		if stop.Lat < -90 || stop.Lat > 90 || stop.Lon < -180 || stop.Lon > 180 {
			return nil, errs.Validationf("stop %d has out-of-range coordinates", i)
		}
	}
	return buildRoute(req.Stops, req.Start), nil
}

func (s *service) OptimizeDriverRoute(ctx context.Context, driverID string, start *Location) (*Route, error) {
	if driverID == "" {
		return nil, errs.Validationf("driver_id is required")
	}
	stops, err := s.repo.ListActiveDriverStops(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver deliveries: %w", err)
	}
	return buildRoute(stops, start), nil
}
