package devapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackpro-client/internal/domain/activity"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"
     xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1">
  <trk>
    <name> Morning Ride </name>
    <trkseg>
      <trkpt lat="45.0000" lon="7.0000">
        <ele>100</ele>
        <time>2025-06-01T07:00:00Z</time>
        <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>120</gpxtpx:hr><gpxtpx:cad>80</gpxtpx:cad></gpxtpx:TrackPointExtension></extensions>
      </trkpt>
      <trkpt lat="45.0100" lon="7.0000">
        <ele>110</ele>
        <time>2025-06-01T07:02:00Z</time>
        <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>140</gpxtpx:hr><gpxtpx:cad>90</gpxtpx:cad></gpxtpx:TrackPointExtension></extensions>
      </trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="45.0200" lon="7.0000">
        <ele>105</ele>
        <time>2025-06-01T07:04:00Z</time>
      </trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseGPX(t *testing.T) {
	name, points, err := ParseGPX([]byte(sampleGPX))
	require.NoError(t, err)

	assert.Equal(t, "Morning Ride", name)
	require.Len(t, points, 3, "segments are concatenated")
	assert.Equal(t, 45.01, points[1].Lat)
	assert.Equal(t, 110.0, points[1].Ele)
	require.NotNil(t, points[0].HR)
	assert.Equal(t, 120, *points[0].HR)
	require.NotNil(t, points[1].Cadence)
	assert.Equal(t, 90, *points[1].Cadence)
	assert.Nil(t, points[2].HR)
	require.NotNil(t, points[2].Time)
	assert.Equal(t, time.Date(2025, 6, 1, 7, 4, 0, 0, time.UTC), points[2].Time.UTC())
}

func TestParseGPX_Errors(t *testing.T) {
	_, _, err := ParseGPX([]byte("not xml at all <"))
	assert.Error(t, err)

	_, _, err = ParseGPX([]byte(`<gpx><wpt lat="1" lon="2"/></gpx>`))
	assert.ErrorIs(t, err, ErrNoTrack)

	_, _, err = ParseGPX([]byte(`<gpx><trk><trkseg><trkpt lat="1" lon="2"/></trkseg></trk></gpx>`))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestParseGPX_DefaultName(t *testing.T) {
	name, _, err := ParseGPX([]byte(`<gpx><trk><trkseg><trkpt lat="1" lon="2"/><trkpt lat="1.001" lon="2"/></trkseg></trk></gpx>`))
	require.NoError(t, err)
	assert.Equal(t, defaultActivityName, name)
}

func TestComputeMetrics(t *testing.T) {
	_, points, err := ParseGPX([]byte(sampleGPX))
	require.NoError(t, err)

	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	m, date := ComputeMetrics(points, now)

	assert.Equal(t, time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC), date)
	// 0.02 degrees of latitude is about 2.22 km.
	assert.InDelta(t, 2.22, m.DistanceKm, 0.01)
	assert.Equal(t, 240.0, m.DurationSec)
	assert.InDelta(t, 33.36, m.AvgSpeedKmh, 0.1)
	assert.InDelta(t, 1.8, m.PaceMinPerKm, 0.01)
	assert.Equal(t, 10.0, m.ElevGainM)
	assert.Equal(t, 5.0, m.ElevLossM)
	assert.Equal(t, 110.0, m.MaxElevM)
	assert.Equal(t, 100.0, m.MinElevM)
	assert.Equal(t, 140.0, m.MaxHR)
	assert.Equal(t, 140.0, m.AvgHR, "hr of the first point is not averaged")
	assert.Equal(t, 90.0, m.AvgCadence)
}

func TestComputeMetrics_NoTimestamps(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []activity.PointResponse{{Lat: 1, Lon: 1}, {Lat: 1.01, Lon: 1}}

	m, date := ComputeMetrics(points, now)
	assert.Equal(t, now, date)
	assert.Zero(t, m.DurationSec)
	assert.Zero(t, m.AvgSpeedKmh)
	assert.Zero(t, m.MaxSpeedKmh)
	assert.Greater(t, m.DistanceKm, 1.0)
}

func TestComputeMetrics_IgnoresGPSJumps(t *testing.T) {
	start := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	t1, t2 := start, start.Add(time.Second)
	points := []activity.PointResponse{
		{Lat: 0, Lon: 0, Time: &t1},
		{Lat: 1, Lon: 0, Time: &t2}, // 111 km in a second
	}
	m, _ := ComputeMetrics(points, start)
	assert.Zero(t, m.MaxSpeedKmh)
}
