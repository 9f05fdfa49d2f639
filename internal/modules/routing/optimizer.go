package routing

import "math"

const (
	earthRadiusKm = 6371.0

	// Average delivery speed used for ETA estimates: 30 km/h, i.e.
	// two minutes per kilometer.
	minutesPerKm = 2.0
)

// Distance returns the Haversine great-circle distance in kilometers
// between two coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

// OptimizeRoute sequences stops with a greedy nearest-neighbor walk.
// From the current position it picks the unvisited stop minimizing
// distance times the stop's priority weight, ties going to the earlier
// stop in the input. Starting position is start, or the first stop's
// coordinates when start is nil.
//
// This is a heuristic; it does not guarantee the shortest possible
// route.
func OptimizeRoute(stops []Stop, start *Location) []Stop {
	if len(stops) <= 1 {
		return stops
	}

	curLat, curLon := stops[0].Lat, stops[0].Lon
	if start != nil {
		curLat, curLon = start.Lat, start.Lon
	}

	remaining := make([]Stop, len(stops))
	copy(remaining, stops)

	route := make([]Stop, 0, len(stops))
	for len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(1)
		for i, s := range remaining {
			score := Distance(curLat, curLon, s.Lat, s.Lon) * s.Priority.Weight()
			if score < bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		next := remaining[bestIdx]
		route = append(route, next)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		curLat, curLon = next.Lat, next.Lon
	}
	return route
}

// buildRoute wraps an optimized sequence with total distance and ETA.
func buildRoute(stops []Stop, start *Location) *Route {
	ordered := OptimizeRoute(stops, start)

	total := 0.0
	for i := 1; i < len(ordered); i++ {
		total += Distance(ordered[i-1].Lat, ordered[i-1].Lon, ordered[i].Lat, ordered[i].Lon)
	}
	if ordered == nil {
		ordered = []Stop{}
	}
	return &Route{
		Stops:            ordered,
		TotalDistanceKm:  total,
		EstimatedMinutes: total * minutesPerKm,
	}
}
