// Package geo holds the small amount of geometry the client does itself:
// elevation profiles and coordinate decimation for map rendering.
package geo

import (
	"iter"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point is one raw track sample.
type Point struct {
	Lat       float64
	Lon       float64
	Elevation float64
}

// ProfilePoint is one entry of an elevation profile.
type ProfilePoint struct {
	Distance  float64 `json:"distance"` // cumulative km, 3 decimals
	Elevation float64 `json:"elevation"`
}

// Coordinate is a map-ready lat/lng pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// ElevationProfile yields cumulative distance and elevation for each point.
// The sequence is computed lazily and can be ranged over any number of times.
func ElevationProfile(points []Point) iter.Seq[ProfilePoint] {
	return func(yield func(ProfilePoint) bool) {
		cumulative := 0.0
		for i, p := range points {
			if i > 0 {
				prev := points[i-1]
				cumulative += HaversineKm(prev.Lat, prev.Lon, p.Lat, p.Lon)
			}
			if !yield(ProfilePoint{Distance: round3(cumulative), Elevation: p.Elevation}) {
				return
			}
		}
	}
}

// Decimate keeps at most max coordinates, always including the first and
// last sample and spacing the rest evenly. max < 2 keeps everything.
func Decimate(points []Point, max int) []Coordinate {
	n := len(points)
	if n == 0 {
		return []Coordinate{}
	}
	if max < 2 || n <= max {
		out := make([]Coordinate, n)
		for i, p := range points {
			out[i] = Coordinate{Lat: p.Lat, Lng: p.Lon}
		}
		return out
	}

	out := make([]Coordinate, 0, max)
	step := float64(n-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx > n-1 {
			idx = n - 1
		}
		out = append(out, Coordinate{Lat: points[idx].Lat, Lng: points[idx].Lon})
	}
	return out
}

func toRad(v float64) float64 {
	return v * math.Pi / 180
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
