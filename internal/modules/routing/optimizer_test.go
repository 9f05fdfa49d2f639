package routing

import (
	"context"
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(51.5, -0.12, 51.5, -0.12); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	ab := Distance(52.52, 13.405, 48.8566, 2.3522)
	ba := Distance(48.8566, 2.3522, 52.52, 13.405)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}

func TestDistanceBerlinParis(t *testing.T) {
	// Berlin to Paris is roughly 878 km great-circle.
	d := Distance(52.52, 13.405, 48.8566, 2.3522)
	if d < 850 || d > 900 {
		t.Errorf("Berlin-Paris distance = %f km, want ~878", d)
	}
}

func TestOptimizeRouteEmptyAndSingle(t *testing.T) {
	if got := OptimizeRoute(nil, nil); len(got) != 0 {
		t.Errorf("empty input should yield empty route, got %d stops", len(got))
	}
	one := []Stop{{Label: "only", Lat: 1, Lon: 1}}
	got := OptimizeRoute(one, nil)
	if len(got) != 1 || got[0].Label != "only" {
		t.Errorf("single stop should be returned unchanged, got %v", got)
	}
}

func TestOptimizeRouteVisitsNearestFirst(t *testing.T) {
	stops := []Stop{
		{Label: "B", Lat: 0, Lon: 1, Priority: PriorityLow},
		{Label: "C", Lat: 0, Lon: 0.1, Priority: PriorityLow},
	}
	got := OptimizeRoute(stops, &Location{Lat: 0, Lon: 0})
	if got[0].Label != "C" || got[1].Label != "B" {
		t.Errorf("route = [%s %s], want [C B]", got[0].Label, got[1].Label)
	}
}

func TestOptimizeRoutePriorityPullsFartherStopFirst(t *testing.T) {
	// HIGH halves the effective distance: 1.0*0.5 < 0.6*1.0, so the
	// farther HIGH stop is visited before the nearer LOW stop.
	stops := []Stop{
		{Label: "near-low", Lat: 0, Lon: 0.6, Priority: PriorityLow},
		{Label: "far-high", Lat: 0, Lon: 1.0, Priority: PriorityHigh},
	}
	got := OptimizeRoute(stops, &Location{Lat: 0, Lon: 0})
	if got[0].Label != "far-high" {
		t.Errorf("first stop = %s, want far-high", got[0].Label)
	}
}

func TestOptimizeRouteTieBreaksByInputOrder(t *testing.T) {
	stops := []Stop{
		{Label: "first", Lat: 0, Lon: 1, Priority: PriorityLow},
		{Label: "second", Lat: 0, Lon: -1, Priority: PriorityLow},
	}
	got := OptimizeRoute(stops, &Location{Lat: 0, Lon: 0})
	if got[0].Label != "first" {
		t.Errorf("equidistant tie should keep input order, got %s first", got[0].Label)
	}
}

func TestOptimizeRouteDefaultsStartToFirstStop(t *testing.T) {
	stops := []Stop{
		{Label: "A", Lat: 0, Lon: 0},
		{Label: "B", Lat: 0, Lon: 5},
		{Label: "C", Lat: 0, Lon: 1},
	}
	got := OptimizeRoute(stops, nil)
	if got[0].Label != "A" || got[1].Label != "C" || got[2].Label != "B" {
		t.Errorf("route = [%s %s %s], want [A C B]", got[0].Label, got[1].Label, got[2].Label)
	}
}

type fakeRepo struct{ stops []Stop }

func (f *fakeRepo) ListActiveDriverStops(ctx context.Context, driverID string) ([]Stop, error) {
	return f.stops, nil
}

func TestOptimizeDriverRouteTotalsAndETA(t *testing.T) {
	repo := &fakeRepo{stops: []Stop{
		{Label: "x", Lat: 0, Lon: 0, Priority: PriorityMedium},
		{Label: "y", Lat: 0, Lon: 1, Priority: PriorityMedium},
	}}
	svc := NewService(repo)

	route, err := svc.OptimizeDriverRoute(context.Background(), "driver-1", &Location{Lat: 0, Lon: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(route.Stops))
	}
	leg := Distance(0, 0, 0, 1)
	if math.Abs(route.TotalDistanceKm-leg) > 1e-9 {
		t.Errorf("total = %f, want %f", route.TotalDistanceKm, leg)
	}
	if math.Abs(route.EstimatedMinutes-leg*2) > 1e-9 {
		t.Errorf("eta = %f minutes, want %f", route.EstimatedMinutes, leg*2)
	}
}

func TestOptimizeDriverRouteNoStops(t *testing.T) {
	svc := NewService(&fakeRepo{})
	route, err := svc.OptimizeDriverRoute(context.Background(), "driver-1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Stops) != 0 || route.TotalDistanceKm != 0 {
		t.Errorf("empty driver route should have no stops and zero distance")
	}
}
