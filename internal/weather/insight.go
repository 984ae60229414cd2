package weather

import (
	"math"

	"github.com/i474232898/skypulse/internal/common"
)

// Translation keys. Text is looked up by the view layer; nothing here composes prose.
const (
	FeelHot           = "aiInsight.feel.hot"
	FeelWarm          = "aiInsight.feel.warm"
	FeelMild          = "aiInsight.feel.mild"
	FeelCool          = "aiInsight.feel.cool"
	FeelCold          = "aiInsight.feel.cold"
	FeelHumid         = "aiInsight.feel.humid"
	FeelWindy         = "aiInsight.feel.windy"
	FeelBreeze        = "aiInsight.feel.breeze"
	FeelStormPossible = "aiInsight.feel.stormPossible"
	FeelFog           = "aiInsight.feel.fog"
	FeelRainPossible  = "aiInsight.feel.rainPossible"

	RadarLoading                = "radar.insight.now.loading"
	RadarHighPressureLightWinds = "radar.insight.now.highPressureLightWinds"
	RadarLowPressureBreezy      = "radar.insight.now.lowPressureBreezy"
	RadarStrongWindsChanges     = "radar.insight.now.strongWindsChanges"
	RadarModerateWindsClouds    = "radar.insight.now.moderateWindsClouds"
	RadarCloudsModerateTemp     = "radar.insight.now.cloudsModerateTemp"
	RadarPrecipHeavy            = "radar.insight.now.precipHeavy"
	RadarPrecipLight            = "radar.insight.now.precipLight"
	RadarPrecipLow              = "radar.insight.now.precipLow"
	RadarStable                 = "radar.insight.now.fallbackStable"
)

const maxFeelKeys = 3

// InsightEngine derives AQI, "feel" and radar keys. It must share its precipitation
// policy with the Classifier.
type InsightEngine struct {
	Precipitation PrecipitationPolicy
}

// NewInsightEngine returns an engine bound to the given policy.
func NewInsightEngine(policy PrecipitationPolicy) InsightEngine {
	return InsightEngine{Precipitation: policy}
}

// AQICategoryKey buckets an EPA AQI value.
func (InsightEngine) AQICategoryKey(aqi *int) string {
	if aqi == nil {
		return "unknown"
	}
	switch v := *aqi; {
	case v <= 50:
		return "good"
	case v <= 100:
		return "moderate"
	case v <= 150:
		return "unhealthyForSensitiveGroups"
	case v <= 200:
		return "unhealthy"
	default:
		return "veryUnhealthy"
	}
}

// AQIRangeTextKey returns the one fixed explanatory text key for the AQI bucket.
func (InsightEngine) AQIRangeTextKey(aqi *int) string {
	if aqi == nil {
		return "aqi.range.unavailable"
	}
	switch v := *aqi; {
	case v <= 50:
		return "aqi.range.good.text"
	case v <= 100:
		return "aqi.range.moderate.text"
	case v <= 150:
		return "aqi.range.unhealthySensitive.text"
	case v <= 200:
		return "aqi.range.unhealthy.text"
	default:
		return "aqi.range.veryUnhealthy.text"
	}
}

// FeelKeys returns up to three keys in fixed priority: temperature, then comfort, then
// hazard. Thresholds are Celsius and m/s; imperial readings are converted first.
func (e InsightEngine) FeelKeys(current Slot, unit Unit) []string {
	temp := math.Round(celsius(valueOr(current.Temperature, 0), unit))
	wind := metersPerSecond(valueOr(current.WindSpeed, 0), unit)
	humidity := valueOr(current.Humidity, 0)

	keys := make([]string, 0, maxFeelKeys)

	switch {
	case temp >= 32:
		keys = append(keys, FeelHot)
	case temp >= 26:
		keys = append(keys, FeelWarm)
	case temp <= 2:
		keys = append(keys, FeelCold)
	case temp <= 10:
		keys = append(keys, FeelCool)
	default:
		keys = append(keys, FeelMild)
	}

	switch {
	case humidity > 78:
		keys = append(keys, FeelHumid)
	case wind >= 25:
		keys = append(keys, FeelWindy)
	case wind >= 12:
		keys = append(keys, FeelBreeze)
	}

	switch {
	case isStorm(current):
		keys = append(keys, FeelStormPossible)
	case common.HasAnyFold(current.Condition, "fog", "mist", "haze"):
		keys = append(keys, FeelFog)
	case e.Precipitation.HasPrecipitation(current) || valueOr(current.Pop, 0) > 0:
		keys = append(keys, FeelRainPossible)
	}

	return keys
}

// RadarKeys describes the current observation for the radar banner. A nil current
// means nothing has been fetched yet.
func (e InsightEngine) RadarKeys(current *CurrentWeather, unit Unit) []string {
	if current == nil {
		return []string{RadarLoading}
	}
	c := current.Slot
	pressure := valueOr(c.Pressure, 1013)
	wind := metersPerSecond(valueOr(c.WindSpeed, 0), unit)

	strongWind := wind >= 8
	moderateWind := wind >= 4 && wind < 8

	var keys []string
	switch {
	case pressure > 1015 && wind < 4:
		keys = append(keys, RadarHighPressureLightWinds)
	case pressure < 1005 && (strongWind || moderateWind):
		keys = append(keys, RadarLowPressureBreezy)
	case strongWind:
		keys = append(keys, RadarStrongWindsChanges)
	case moderateWind:
		keys = append(keys, RadarModerateWindsClouds)
	}

	if valueOr(c.Clouds, 0) > 30 {
		keys = append(keys, RadarCloudsModerateTemp)
	}

	switch {
	case e.Precipitation.HasPrecipitation(c) && isStorm(c):
		keys = append(keys, RadarPrecipHeavy)
	case e.Precipitation.HasPrecipitation(c):
		keys = append(keys, RadarPrecipLight)
	case c.Rain1h != nil || c.Rain3h != nil:
		keys = append(keys, RadarPrecipLow)
	}

	if len(keys) == 0 {
		return []string{RadarStable}
	}
	return keys
}

// Derive computes every derived value for one composed cycle.
func (e InsightEngine) Derive(data *Data) Derived {
	if data == nil {
		return Derived{
			AQICategoryKey:  e.AQICategoryKey(nil),
			AQIRangeTextKey: e.AQIRangeTextKey(nil),
			Insight:         Insight{FeelKeys: []string{}},
			RadarKeys:       e.RadarKeys(nil, UnitMetric),
			BackgroundKey:   ConditionClear.BackgroundKey(),
		}
	}

	var aqi *int
	if data.AirQuality != nil {
		aqi = data.AirQuality.AQI
	}
	return Derived{
		AQICategoryKey:  e.AQICategoryKey(aqi),
		AQIRangeTextKey: e.AQIRangeTextKey(aqi),
		Insight:         Insight{FeelKeys: e.FeelKeys(data.Current.Slot, data.Unit)},
		RadarKeys:       e.RadarKeys(&data.Current, data.Unit),
		BackgroundKey:   data.Current.Sky.Condition.BackgroundKey(),
	}
}

func isStorm(s Slot) bool {
	return s.ConditionCode != nil && *s.ConditionCode >= 200 && *s.ConditionCode < 300
}

func celsius(v float64, unit Unit) float64 {
	if unit == UnitImperial {
		return (v - 32) * 5 / 9
	}
	return v
}

// metersPerSecond converts imperial wind (mph) to m/s.
func metersPerSecond(v float64, unit Unit) float64 {
	if unit == UnitImperial {
		return v * 0.44704
	}
	return v
}
