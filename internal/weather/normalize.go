package weather

import (
	"math"
	"time"
)

// NormalizeCurrent maps the current-conditions payload to a Slot, including sun times.
// A missing dt leaves Timestamp zero; the composer stamps it with the cycle clock.
func NormalizeCurrent(raw CurrentPayload) Slot {
	s := normalizeCommon(raw.Main, raw.Wind, raw.Clouds, raw.Rain, raw.Pop, raw.Weather, raw.Dt)
	if raw.Sys.Sunrise != nil {
		s.Sunrise = time.Unix(*raw.Sys.Sunrise, 0).UTC()
	}
	if raw.Sys.Sunset != nil {
		s.Sunset = time.Unix(*raw.Sys.Sunset, 0).UTC()
	}
	return s
}

// NormalizeForecastItem maps one forecast-list step to a Slot. Sun times are injected
// later by the aggregator from the current observation.
func NormalizeForecastItem(raw ForecastItemPayload) Slot {
	return normalizeCommon(raw.Main, raw.Wind, raw.Clouds, raw.Rain, raw.Pop, raw.Weather, raw.Dt)
}

// NormalizeForecast maps the whole list, preserving order.
func NormalizeForecast(raw ForecastPayload) []Slot {
	out := make([]Slot, 0, len(raw.List))
	for _, item := range raw.List {
		out = append(out, NormalizeForecastItem(item))
	}
	return out
}

func normalizeCommon(
	main payloadMain,
	wind payloadWind,
	clouds payloadClouds,
	rain *payloadPrecip,
	pop *float64,
	conditions []payloadCondition,
	dt int64,
) Slot {
	s := Slot{
		Temperature: main.Temp,
		FeelsLike:   main.FeelsLike,
		Humidity:    main.Humidity,
		Pressure:    main.Pressure,
		WindSpeed:   wind.Speed,
		WindDeg:     wind.Deg,
		Clouds:      clouds.All,
		Pop:         normalizePop(pop),
	}
	if rain != nil {
		s.Rain1h = rain.OneH
		s.Rain3h = rain.ThreeH
	}
	if len(conditions) > 0 {
		s.ConditionCode = conditions[0].ID
		s.Condition = conditions[0].Description
	}
	if dt != 0 {
		s.Timestamp = time.Unix(dt, 0).UTC()
	}
	return s
}

// normalizePop returns probability of precipitation on a 0-100 scale. Upstreams report
// either a 0-1 fraction or a percentage; values above 1 are taken as percent.
func normalizePop(pop *float64) *float64 {
	if pop == nil {
		return nil
	}
	v := *pop
	if v <= 1 {
		v *= 100
	}
	return float(math.Round(v))
}

// pm25Breakpoints are the US EPA 24-hour PM2.5 breakpoints (concentration, index).
var pm25Breakpoints = []struct {
	cLow, cHigh float64
	iLow, iHigh int
}{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// AQIFromPM25 converts a PM2.5 concentration (ug/m3) to the EPA AQI.
func AQIFromPM25(concentration float64) int {
	c := math.Floor(concentration*10) / 10
	if c < 0 {
		return 0
	}
	for _, bp := range pm25Breakpoints {
		if c <= bp.cHigh {
			return int(math.Round(float64(bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + float64(bp.iLow)))
		}
	}
	return 500
}

// NormalizeAirQuality extracts the first reading. The EPA AQI is computed from pm2_5
// when the component is present; otherwise AQI stays nil. Returns nil for an empty list.
func NormalizeAirQuality(raw AirQualityPayload) *AirQuality {
	if len(raw.List) == 0 {
		return nil
	}
	first := raw.List[0]
	aq := &AirQuality{
		ProviderIndex: first.Main.AQI,
		Components:    first.Components,
	}
	if pm, ok := first.Components["pm2_5"]; ok {
		v := AQIFromPM25(pm)
		aq.AQI = &v
	}
	return aq
}
