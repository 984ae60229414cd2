// Package radar selects RainViewer frames and builds radar tile and viewer URLs.
package radar

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/i474232898/skypulse/internal/weather"
)

const (
	// ExternalBaseURL is the default external radar viewer.
	ExternalBaseURL = "https://www.windy.com"

	tileURLFormat = "https://tilecache.rainviewer.com/v2/radar/%d/256/%d/%d/%d/%d/%d.png"

	defaultLat   = 40.71
	defaultLon   = -74.01
	defaultZoom  = 4
	locationZoom = 8

	frameWindow   = 60 * time.Minute
	frameInterval = 10 * time.Minute
	maxFrames     = 6
)

// Frame is one entry of the RainViewer manifest.
type Frame struct {
	Time int64  `json:"time"`
	Path string `json:"path"`
}

// Manifest is the RainViewer public/weather-maps.json document.
type Manifest struct {
	Version   string `json:"version"`
	Generated int64  `json:"generated"`
	Host      string `json:"host"`
	Radar     struct {
		Past    []Frame `json:"past"`
		Nowcast []Frame `json:"nowcast"`
	} `json:"radar"`
}

// Timestamps returns past then nowcast frame times.
func (m Manifest) Timestamps() []int64 {
	out := make([]int64, 0, len(m.Radar.Past)+len(m.Radar.Nowcast))
	for _, f := range m.Radar.Past {
		out = append(out, f.Time)
	}
	for _, f := range m.Radar.Nowcast {
		out = append(out, f.Time)
	}
	return out
}

// Latest returns the most recent frame time, or false for an empty manifest.
func (m Manifest) Latest() (int64, bool) {
	ts := m.Timestamps()
	if len(ts) == 0 {
		return 0, false
	}
	latest := ts[0]
	for _, t := range ts[1:] {
		if t > latest {
			latest = t
		}
	}
	return latest, true
}

// FramesLastHour keeps timestamps from the past hour that are not in the future,
// de-duplicated and oldest first, at most one per ten minutes and six in total.
func FramesLastHour(timestamps []int64, now time.Time) []int64 {
	end := now.Unix()
	cutoff := now.Add(-frameWindow).Unix()

	seen := make(map[int64]struct{}, len(timestamps))
	window := make([]int64, 0, len(timestamps))
	for _, t := range timestamps {
		if t < cutoff || t > end {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		window = append(window, t)
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	frames := make([]int64, 0, maxFrames)
	for _, t := range window {
		if len(frames) == 0 || t-frames[len(frames)-1] >= int64(frameInterval.Seconds()) {
			frames = append(frames, t)
		}
		if len(frames) >= maxFrames {
			break
		}
	}
	return frames
}

// TileURL builds the 256px tile URL for one frame. colorScheme is 0-4 and smooth 0 or 1.
func TileURL(ts int64, z, x, y, colorScheme, smooth int) string {
	return fmt.Sprintf(tileURLFormat, ts, z, x, y, colorScheme, smooth)
}

// ExternalURL opens the external viewer centred on coords, or on a wide default view
// when coords are missing or invalid.
func ExternalURL(coords *weather.Coordinates) string {
	if coords != nil && validCoords(coords.Lat, coords.Lon) {
		return fmt.Sprintf("%s/?%.2f,%.2f,%d", ExternalBaseURL, coords.Lat, coords.Lon, locationZoom)
	}
	return fmt.Sprintf("%s/?%.2f,%.2f,%d", ExternalBaseURL, defaultLat, defaultLon, defaultZoom)
}

func validCoords(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
