// internal/devapi/gpx.go
package devapi

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/geo"
)

const defaultActivityName = "Imported GPX Activity"

// Speeds above this are GPS jumps, not movement.
const maxPlausibleKmh = 120

var (
	ErrNoTrack  = errors.New("no <trk> found in GPX")
	ErrTooShort = errors.New("GPX must contain at least 2 track points")
	hrPattern   = regexp.MustCompile(`<(?:\w+:)?hr>\s*(\d{1,3})\s*</(?:\w+:)?hr>`)
	cadPattern  = regexp.MustCompile(`<(?:\w+:)?cad>\s*(\d{1,3})\s*</(?:\w+:)?cad>`)
	timeLayouts = []string{time.RFC3339Nano, time.RFC3339}
)

type gpxDocument struct {
	Tracks []struct {
		Name     string `xml:"name"`
		Segments []struct {
			Points []struct {
				Lat        float64  `xml:"lat,attr"`
				Lon        float64  `xml:"lon,attr"`
				Ele        *float64 `xml:"ele"`
				Time       string   `xml:"time"`
				Extensions struct {
					Inner string `xml:",innerxml"`
				} `xml:"extensions"`
			} `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

// ParseGPX reads the first track of a GPX document.
func ParseGPX(content []byte) (string, []activity.PointResponse, error) {
	var doc gpxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", nil, fmt.Errorf("invalid GPX: %w", err)
	}
	if len(doc.Tracks) == 0 {
		return "", nil, ErrNoTrack
	}

	trk := doc.Tracks[0]
	name := strings.TrimSpace(trk.Name)
	if name == "" {
		name = defaultActivityName
	}

	var points []activity.PointResponse
	for _, seg := range trk.Segments {
		for _, p := range seg.Points {
			point := activity.PointResponse{Lat: p.Lat, Lon: p.Lon}
			if p.Ele != nil {
				point.Ele = *p.Ele
			}
			point.Time = parseTime(p.Time)
			point.HR = extInt(hrPattern, p.Extensions.Inner)
			point.Cadence = extInt(cadPattern, p.Extensions.Inner)
			points = append(points, point)
		}
	}
	if len(points) < 2 {
		return "", nil, ErrTooShort
	}
	return name, points, nil
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func extInt(re *regexp.Regexp, src string) *int {
	m := re.FindStringSubmatch(src)
	if len(m) != 2 {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// ComputeMetrics derives the summary the activity list shows, plus the
// activity date (first timestamp, or now).
func ComputeMetrics(points []activity.PointResponse, now time.Time) (activity.MetricsResponse, time.Time) {
	date := now.UTC()
	if len(points) == 0 {
		return activity.MetricsResponse{}, date
	}
	if points[0].Time != nil {
		date = points[0].Time.UTC()
	}

	var (
		distanceKm, gain, loss, maxSpeed float64
		hrSum, hrCount, maxHR            int
		cadSum, cadCount                 int
	)
	maxEle, minEle := points[0].Ele, points[0].Ele

	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		segKm := geo.HaversineKm(prev.Lat, prev.Lon, curr.Lat, curr.Lon)
		distanceKm += segKm

		if d := curr.Ele - prev.Ele; d > 0 {
			gain += d
		} else {
			loss -= d
		}
		maxEle = math.Max(maxEle, curr.Ele)
		minEle = math.Min(minEle, curr.Ele)

		if prev.Time != nil && curr.Time != nil {
			if secs := curr.Time.Sub(*prev.Time).Seconds(); secs > 0 {
				if kmh := segKm / (secs / 3600); kmh > maxSpeed && kmh < maxPlausibleKmh {
					maxSpeed = kmh
				}
			}
		}
		if curr.HR != nil {
			hrSum += *curr.HR
			hrCount++
			maxHR = max(maxHR, *curr.HR)
		}
		if curr.Cadence != nil {
			cadSum += *curr.Cadence
			cadCount++
		}
	}

	var duration float64
	first, last := points[0].Time, points[len(points)-1].Time
	if first != nil && last != nil && last.After(*first) {
		duration = math.Floor(last.Sub(*first).Seconds())
	}

	m := activity.MetricsResponse{
		DistanceKm:  round2(distanceKm),
		DurationSec: duration,
		MaxSpeedKmh: round2(maxSpeed),
		ElevGainM:   round2(gain),
		ElevLossM:   round2(loss),
		MaxElevM:    round2(maxEle),
		MinElevM:    round2(minEle),
		MaxHR:       float64(maxHR),
	}
	if duration > 0 && distanceKm > 0 {
		m.AvgSpeedKmh = round2(distanceKm / (duration / 3600))
		m.PaceMinPerKm = round2((duration / 60) / distanceKm)
	}
	if hrCount > 0 {
		m.AvgHR = round2(float64(hrSum) / float64(hrCount))
	}
	if cadCount > 0 {
		m.AvgCadence = round2(float64(cadSum) / float64(cadCount))
	}
	return m, date
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
