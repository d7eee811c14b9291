package geo

import (
	"math"
	"sort"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// AgentDistance pairs an agent with its distance from the origin. DistanceKm is
// nil when the agent has no coordinates.
type AgentDistance struct {
	Agent      domain.Agent
	DistanceKm *float64
}

// SortByDistance orders agents nearest first. Agents without coordinates go
// last and equal distances keep input order.
func SortByDistance(origin Coordinates, agents []domain.Agent) []AgentDistance {
	out := make([]AgentDistance, len(agents))
	for i, agent := range agents {
		out[i] = AgentDistance{Agent: agent}
		if agent.HasLocation() {
			d := HaversineKm(origin, Coordinates{Latitude: *agent.Latitude, Longitude: *agent.Longitude})
			out[i].DistanceKm = &d
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DistanceKm, out[j].DistanceKm
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	return out
}
