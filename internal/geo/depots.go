package geo

import (
	"context"
	"errors"
	"math"
)

// Depot is a named site drivers clock in and out at.
type Depot struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	RadiusM   float64 `yaml:"radius_m"`
}

// DefaultDepotRadius applies to depots configured without a radius.
const DefaultDepotRadius = 250.0

var ErrNoDepotNearby = errors.New("no depot within range")

// DepotResolver names a position after the closest depot whose radius covers it.
type DepotResolver struct {
	Depots []Depot
}

func (r DepotResolver) Resolve(ctx context.Context, lat, lng float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	best, bestDist := "", math.MaxFloat64
	for _, d := range r.Depots {
		radius := d.RadiusM
		if radius <= 0 {
			radius = DefaultDepotRadius
		}
		dist := Distance(lat, lng, d.Latitude, d.Longitude)
		if dist <= radius && dist < bestDist {
			best, bestDist = d.Name, dist
		}
	}
	if best == "" {
		return "", ErrNoDepotNearby
	}
	return best, nil
}

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth's radius in meters.
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
