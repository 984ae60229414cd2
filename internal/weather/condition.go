package weather

import (
	"encoding/json"
	"math"
	"time"

	"github.com/i474232898/skypulse/internal/common"
)

// Condition is the normalized sky condition every surface renders.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionPartlyCloudy Condition = "PARTLY_CLOUDY"
	ConditionCloudy       Condition = "CLOUDY"
	ConditionRain         Condition = "RAIN"
	ConditionThunder      Condition = "THUNDER"
	ConditionSnow         Condition = "SNOW"
	ConditionSnowRain     Condition = "SNOW_RAIN"
)

// BackgroundKey maps a condition to the background image key.
func (c Condition) BackgroundKey() string {
	switch c {
	case ConditionPartlyCloudy:
		return "partly_cloudy"
	case ConditionCloudy:
		return "overcast"
	case ConditionRain, ConditionSnowRain:
		return "rain"
	case ConditionThunder:
		return "thunderstorm"
	case ConditionSnow:
		return "snow"
	default:
		return "clear"
	}
}

// Icon indexes the 12-icon sprite. The numbering is fixed by the asset set.
type Icon int

const (
	IconClear Icon = iota
	IconNightClear
	IconCloudy
	IconPartlyCloudy
	IconLightRain
	IconRainSun
	IconRain
	IconThunder
	IconThunderRain
	IconSnow
	IconSnowCloud
	IconSnowRain
)

var iconFiles = [...]string{
	"0_sun.png",
	"1_moon.png",
	"2_cloudy.png",
	"3_partly_cloudy.png",
	"4_light_rain.png",
	"5_sun_rain.png",
	"6_rain.png",
	"7_thunder.png",
	"8_thunder_rain.png",
	"9_snow.png",
	"10_snow_cloud.png",
	"11_snow_rain.png",
}

// File returns the sprite file name; out-of-range icons map to the sun.
func (i Icon) File() string {
	if i < 0 || int(i) >= len(iconFiles) {
		return iconFiles[IconClear]
	}
	return iconFiles[i]
}

// ConditionResult is what the classifier decides for one slot.
type ConditionResult struct {
	Condition Condition `json:"condition"`
	Icon      Icon      `json:"iconIndex"`
	IsNight   bool      `json:"isNight"`
}

// MarshalJSON adds the sprite file of the icon.
func (r ConditionResult) MarshalJSON() ([]byte, error) {
	type plain ConditionResult
	return json.Marshal(struct {
		plain
		IconFile string `json:"iconFile"`
	}{plain(r), r.Icon.File()})
}

const (
	secondsPerDay = 86400

	cloudsCloudy = 70
	cloudsPartly = 30

	// Codes follow the upstream condition-code ranges.
	defaultConditionCode = 800
)

// PrecipitationPolicy owns the "real precipitation" threshold. The classifier and the
// insight engine must hold the same value so icons and text cannot disagree.
type PrecipitationPolicy struct {
	ThresholdMm float64
}

// DefaultPrecipitationPolicy counts more than 0.3 mm as real precipitation.
var DefaultPrecipitationPolicy = PrecipitationPolicy{ThresholdMm: 0.3}

// AmountMm is max(rain1h, rain3h); missing values contribute nothing.
func (p PrecipitationPolicy) AmountMm(s Slot) float64 {
	return math.Max(valueOr(s.Rain1h, 0), valueOr(s.Rain3h, 0))
}

// HasPrecipitation reports whether the slot carries real precipitation.
func (p PrecipitationPolicy) HasPrecipitation(s Slot) bool {
	return p.AmountMm(s) > p.ThresholdMm
}

// SecondsSinceLocalMidnight shifts t by the tz offset and returns the time of day in
// seconds, always within [0, 86400).
func SecondsSinceLocalMidnight(t time.Time, tzOffsetSeconds int) int {
	s := (t.Unix() + int64(tzOffsetSeconds)) % secondsPerDay
	if s < 0 {
		s += secondsPerDay
	}
	return int(s)
}

// Classifier is the single authority for condition, icon and day/night.
type Classifier struct {
	Precipitation PrecipitationPolicy
}

// NewClassifier returns a classifier bound to the given policy.
func NewClassifier(policy PrecipitationPolicy) Classifier {
	return Classifier{Precipitation: policy}
}

// IsNight decides day/night for the slot. Sun times stored on the slot win over sun.
// Without sun data it falls back to local hour >= 18 or < 6.
func (c Classifier) IsNight(slot Slot, sun SunTimes, tzOffsetSeconds int) bool {
	if !slot.Sunrise.IsZero() {
		sun.Sunrise = slot.Sunrise
	}
	if !slot.Sunset.IsZero() {
		sun.Sunset = slot.Sunset
	}

	now := SecondsSinceLocalMidnight(slot.Timestamp, tzOffsetSeconds)
	if !sun.Known() {
		hour := now / 3600
		return hour >= 18 || hour < 6
	}

	sunrise := SecondsSinceLocalMidnight(sun.Sunrise, tzOffsetSeconds)
	sunset := SecondsSinceLocalMidnight(sun.Sunset, tzOffsetSeconds)
	return now < sunrise || now >= sunset
}

// Classify maps a slot to its condition and icon. First matching rule wins.
func (c Classifier) Classify(slot Slot, sun SunTimes, tzOffsetSeconds int) ConditionResult {
	night := c.IsNight(slot, sun, tzOffsetSeconds)
	clouds := valueOr(slot.Clouds, 0)
	code := defaultConditionCode
	if slot.ConditionCode != nil {
		code = *slot.ConditionCode
	}

	result := func(cond Condition, icon Icon) ConditionResult {
		return ConditionResult{Condition: cond, Icon: icon, IsNight: night}
	}

	if c.Precipitation.HasPrecipitation(slot) {
		switch {
		case code >= 200 && code < 300:
			if common.HasAnyFold(slot.Condition, "rain", "drizzle", "shower") {
				return result(ConditionThunder, IconThunderRain)
			}
			return result(ConditionThunder, IconThunder)
		case code >= 600 && code < 700:
			if code == 615 || code == 616 {
				return result(ConditionSnowRain, IconSnowRain)
			}
			if clouds >= cloudsCloudy {
				return result(ConditionSnow, IconSnowCloud)
			}
			return result(ConditionSnow, IconSnow)
		case code >= 300 && code < 400:
			return result(ConditionRain, IconLightRain)
		default:
			if !night && clouds >= cloudsPartly && clouds <= cloudsCloudy {
				return result(ConditionRain, IconRainSun)
			}
			return result(ConditionRain, IconRain)
		}
	}

	switch {
	case clouds >= cloudsCloudy:
		return result(ConditionCloudy, IconCloudy)
	case clouds >= cloudsPartly:
		return result(ConditionPartlyCloudy, IconPartlyCloudy)
	case night:
		return result(ConditionClear, IconNightClear)
	default:
		return result(ConditionClear, IconClear)
	}
}
