// internal/domain/activity/entity.go
package activity

import (
	"slices"
	"strconv"
	"time"

	"trackpro-client/internal/geo"
)

type SportType string

const (
	SportCycling SportType = "cycling"
	SportRunning SportType = "running"
	SportOther   SportType = "other"
)

func (s SportType) Valid() bool {
	switch s {
	case SportCycling, SportRunning, SportOther:
		return true
	}
	return false
}

// MaxMapCoordinates bounds the coordinate list handed to map rendering.
const MaxMapCoordinates = 500

// Activity is a read-only projection of server computed GPX metrics.
type Activity struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SportType     SportType `json:"sportType"`
	Date          time.Time `json:"date"`
	Distance      float64   `json:"distance"` // km
	Duration      float64   `json:"duration"` // seconds
	AvgSpeed      float64   `json:"avgSpeed"`
	MaxSpeed      float64   `json:"maxSpeed"`
	ElevationGain float64   `json:"elevationGain"`
	ElevationLoss float64   `json:"elevationLoss"`
	AvgHeartRate  float64   `json:"avgHeartRate,omitempty"`
	MaxHeartRate  float64   `json:"maxHeartRate,omitempty"`
	AvgCadence    float64   `json:"avgCadence,omitempty"`
	Pace          float64   `json:"pace,omitempty"` // min/km
}

// Statistics is an Activity plus the derived elevation profile and map track.
type Statistics struct {
	Activity
	ElevationProfile []geo.ProfilePoint `json:"elevationProfile"`
	Coordinates      []geo.Coordinate   `json:"coordinates"`
}

func FromResponse(r ActivityResponse) Activity {
	return Activity{
		ID:            strconv.FormatInt(r.ID, 10),
		Name:          r.Name,
		SportType:     r.SportType,
		Date:          r.ActivityDate,
		Distance:      r.Metrics.DistanceKm,
		Duration:      r.Metrics.DurationSec,
		AvgSpeed:      r.Metrics.AvgSpeedKmh,
		MaxSpeed:      r.Metrics.MaxSpeedKmh,
		ElevationGain: r.Metrics.ElevGainM,
		ElevationLoss: r.Metrics.ElevLossM,
		AvgHeartRate:  r.Metrics.AvgHR,
		MaxHeartRate:  r.Metrics.MaxHR,
		AvgCadence:    r.Metrics.AvgCadence,
		Pace:          r.Metrics.PaceMinPerKm,
	}
}

// StatisticsFromResponse maps a detailed activity and derives the profile
// and decimated coordinates from its raw points.
func StatisticsFromResponse(r ActivityResponse) Statistics {
	points := make([]geo.Point, len(r.Points))
	for i, p := range r.Points {
		points[i] = geo.Point{Lat: p.Lat, Lon: p.Lon, Elevation: p.Ele}
	}

	profile := slices.Collect(geo.ElevationProfile(points))
	if profile == nil {
		profile = []geo.ProfilePoint{}
	}

	return Statistics{
		Activity:         FromResponse(r),
		ElevationProfile: profile,
		Coordinates:      geo.Decimate(points, MaxMapCoordinates),
	}
}
