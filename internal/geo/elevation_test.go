package geo

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevationProfile_Empty(t *testing.T) {
	got := slices.Collect(ElevationProfile(nil))
	assert.Empty(t, got)
}

func TestElevationProfile_SinglePoint(t *testing.T) {
	got := slices.Collect(ElevationProfile([]Point{{Lat: 45, Lon: 7, Elevation: 812}}))
	assert.Equal(t, []ProfilePoint{{Distance: 0, Elevation: 812}}, got)
}

func TestElevationProfile_TenthOfADegree(t *testing.T) {
	points := []Point{
		{Lat: 45.0, Lon: 7.0, Elevation: 100},
		{Lat: 45.1, Lon: 7.0, Elevation: 150},
	}
	got := slices.Collect(ElevationProfile(points))
	require.Len(t, got, 2)
	assert.Equal(t, 0.0, got[0].Distance)
	assert.InDelta(t, 11.1, got[1].Distance, 11.1*0.05)
	assert.Equal(t, 150.0, got[1].Elevation)
}

func TestElevationProfile_CumulativeAndRestartable(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 0.01},
		{Lat: 0, Lon: 0.02},
		{Lat: 0, Lon: 0.02},
	}
	seq := ElevationProfile(points)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i].Distance, first[i-1].Distance)
	}
	assert.Equal(t, first[2].Distance, first[3].Distance)
}

func TestElevationProfile_EarlyStop(t *testing.T) {
	points := []Point{{Lat: 0}, {Lat: 1}, {Lat: 2}}
	count := 0
	for range ElevationProfile(points) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestDecimate(t *testing.T) {
	points := make([]Point, 1001)
	for i := range points {
		points[i] = Point{Lat: float64(i), Lon: float64(-i)}
	}

	got := Decimate(points, 500)
	require.Len(t, got, 500)
	assert.Equal(t, Coordinate{Lat: 0, Lng: 0}, got[0])
	assert.Equal(t, Coordinate{Lat: 1000, Lng: -1000}, got[499])

	small := Decimate(points[:10], 500)
	assert.Len(t, small, 10)

	assert.Empty(t, Decimate(nil, 500))
}

func TestHaversineKm_AntipodalPointsStayFinite(t *testing.T) {
	half := math.Pi * EarthRadiusKm
	for _, pair := range [][4]float64{
		{0, 0, 0, 180},
		{45, 7, -45, -173},
		{12.3456789, -98.7654321, -12.3456789, 81.2345679},
	} {
		d := HaversineKm(pair[0], pair[1], pair[2], pair[3])
		assert.False(t, math.IsNaN(d), "%v", pair)
		assert.InDelta(t, half, d, 0.01, "%v", pair)
	}

	got := slices.Collect(ElevationProfile([]Point{
		{Lat: 45, Lon: 7},
		{Lat: -45, Lon: -173},
		{Lat: -45, Lon: -172},
	}))
	require.Len(t, got, 3)
	for _, p := range got {
		assert.False(t, math.IsNaN(p.Distance))
	}
	assert.Greater(t, got[2].Distance, got[1].Distance)
}
