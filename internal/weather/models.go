package weather

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the upstream unit system a cycle was fetched in.
type Unit string

const (
	UnitMetric   Unit = "metric"
	UnitImperial Unit = "imperial"
)

// ParseUnit accepts the API spelling ("metric"/"imperial") as well as the dashboard
// spelling ("C"/"F", "celsius"/"fahrenheit"). Empty input means metric.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "metric", "c", "celsius":
		return UnitMetric, nil
	case "imperial", "f", "fahrenheit":
		return UnitImperial, nil
	default:
		return "", fmt.Errorf("unknown unit %q", s)
	}
}

// Coordinates identify the place a cycle is composed for.
type Coordinates struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name,omitempty"`
	Country string  `json:"country,omitempty"`
	State   string  `json:"state,omitempty"`
}

// Label is the display label used for the current card.
func (c Coordinates) Label() string {
	switch {
	case c.Name != "" && c.Country != "":
		return c.Name + ", " + c.Country
	case c.Name != "":
		return c.Name
	default:
		return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
	}
}

// Slot is one normalized point-in-time weather sample. Measured fields are pointers:
// nil means the upstream did not report the value, which is not the same as zero.
type Slot struct {
	Temperature   *float64  `json:"temperature,omitempty"`
	FeelsLike     *float64  `json:"feelsLike,omitempty"`
	Humidity      *float64  `json:"humidity,omitempty"`
	Pressure      *float64  `json:"pressure,omitempty"`
	WindSpeed     *float64  `json:"windSpeed,omitempty"`
	WindDeg       *float64  `json:"windDeg,omitempty"`
	Clouds        *float64  `json:"clouds,omitempty"` // 0-100
	Pop           *float64  `json:"pop,omitempty"`    // 0-100
	Rain1h        *float64  `json:"rain1h,omitempty"`
	Rain3h        *float64  `json:"rain3h,omitempty"`
	ConditionCode *int      `json:"conditionCode,omitempty"`
	Condition     string    `json:"condition,omitempty"` // display only
	Timestamp     time.Time `json:"timestamp"`
	Sunrise       time.Time `json:"sunrise,omitempty"`
	Sunset        time.Time `json:"sunset,omitempty"`
}

// SunTimes carries the day's sunrise and sunset. Zero values mean unknown.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Known reports whether both sunrise and sunset are present.
func (s SunTimes) Known() bool {
	return !s.Sunrise.IsZero() && !s.Sunset.IsZero()
}

// SunTimes returns the sunrise/sunset stored on the slot itself.
func (s Slot) SunTimes() SunTimes {
	return SunTimes{Sunrise: s.Sunrise, Sunset: s.Sunset}
}

// CurrentWeather is the "now" card.
type CurrentWeather struct {
	Slot
	Location    string          `json:"location"`
	SunriseText string          `json:"sunriseText,omitempty"`
	SunsetText  string          `json:"sunsetText,omitempty"`
	UVIndex     float64         `json:"uvIndex"`
	Sky         ConditionResult `json:"sky"`
}

// HourlyItem is one tile of the 48-hour strip.
type HourlyItem struct {
	Slot
	Label string          `json:"label"`
	Dt    int64           `json:"dt"`
	Sky   ConditionResult `json:"sky"`
}

// ForecastItem is one day of the 5-day strip. Slot is the representative sample used
// for the day's icon only.
type ForecastItem struct {
	Date string          `json:"date"`
	Min  float64         `json:"min"`
	Max  float64         `json:"max"`
	Slot Slot            `json:"slot"`
	Sky  ConditionResult `json:"sky"`
}

// AirQuality is the air-quality section. AQI is on the US EPA 0-500 scale; ProviderIndex
// is the upstream 1-5 index as reported.
type AirQuality struct {
	AQI           *int               `json:"aqi"`
	ProviderIndex *int               `json:"providerIndex,omitempty"`
	Components    map[string]float64 `json:"components,omitempty"`
}

// Data is the aggregate root built once per fetch cycle.
type Data struct {
	Current               CurrentWeather `json:"current"`
	Forecast              []ForecastItem `json:"forecast"`
	Hourly                []HourlyItem   `json:"hourly"`
	AirQuality            *AirQuality    `json:"airQuality"`
	TimezoneOffsetSeconds int            `json:"timezoneOffsetSeconds"`
	MoonIllumination      *float64       `json:"moonIllumination,omitempty"`
	Unit                  Unit           `json:"unit"`
	Coordinates           Coordinates    `json:"coordinates"`
	FetchedAt             time.Time      `json:"fetchedAt"`
}

// Insight holds the ordered "how it may feel" translation keys.
type Insight struct {
	FeelKeys []string `json:"feelKeys"`
}

// Derived holds every rule-derived value the view layer reads.
type Derived struct {
	AQICategoryKey  string   `json:"aqiCategoryKey"`
	AQIRangeTextKey string   `json:"aqiRangeTextKey"`
	Insight         Insight  `json:"insightKeys"`
	RadarKeys       []string `json:"radarKeys"`
	BackgroundKey   string   `json:"backgroundKey"`
}

func float(v float64) *float64 { return &v }

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
