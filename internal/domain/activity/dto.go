// internal/domain/activity/dto.go
package activity

import "time"

type PointResponse struct {
	Lat     float64    `json:"lat"`
	Lon     float64    `json:"lon"`
	Ele     float64    `json:"ele"`
	Time    *time.Time `json:"time,omitempty"`
	HR      *int       `json:"hr,omitempty"`
	Cadence *int       `json:"cadence,omitempty"`
}

type MetricsResponse struct {
	DistanceKm   float64 `json:"distanceKm"`
	DurationSec  float64 `json:"durationSec"`
	AvgSpeedKmh  float64 `json:"avgSpeedKmh"`
	MaxSpeedKmh  float64 `json:"maxSpeedKmh"`
	PaceMinPerKm float64 `json:"paceMinPerKm"`
	ElevGainM    float64 `json:"elevGainM"`
	ElevLossM    float64 `json:"elevLossM"`
	MaxElevM     float64 `json:"maxElevM"`
	MinElevM     float64 `json:"minElevM"`
	AvgHR        float64 `json:"avgHr"`
	MaxHR        float64 `json:"maxHr"`
	AvgCadence   float64 `json:"avgCadence"`
}

// ActivityResponse is the activity shape on the wire. Points are only
// present on the detail endpoint.
type ActivityResponse struct {
	ID           int64           `json:"id"`
	FileName     string          `json:"fileName"`
	SportType    SportType       `json:"sportType"`
	Name         string          `json:"name"`
	ActivityDate time.Time       `json:"activityDate"`
	Metrics      MetricsResponse `json:"metrics"`
	Points       []PointResponse `json:"points,omitempty"`
}

// UploadProgress receives percentages in [0,100] while a file is sent.
type UploadProgress func(pct int)
