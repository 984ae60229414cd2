package weather

// Upstream payload shapes. Every measured field decodes into a pointer so an absent
// key stays distinguishable from a reported zero.

type payloadMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Humidity  *float64 `json:"humidity"`
	Pressure  *float64 `json:"pressure"`
}

type payloadWind struct {
	Speed *float64 `json:"speed"`
	Deg   *float64 `json:"deg"`
}

type payloadClouds struct {
	All *float64 `json:"all"`
}

type payloadPrecip struct {
	OneH   *float64 `json:"1h"`
	ThreeH *float64 `json:"3h"`
}

type payloadCondition struct {
	ID          *int   `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

// CurrentPayload is the current-conditions response.
type CurrentPayload struct {
	Dt       int64              `json:"dt"`
	Timezone *int               `json:"timezone"`
	Name     string             `json:"name"`
	Main     payloadMain        `json:"main"`
	Wind     payloadWind        `json:"wind"`
	Clouds   payloadClouds      `json:"clouds"`
	Rain     *payloadPrecip     `json:"rain"`
	Pop      *float64           `json:"pop"`
	Weather  []payloadCondition `json:"weather"`
	Sys      struct {
		Country string `json:"country"`
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
}

// ForecastItemPayload is one 3-hour step of the forecast list.
type ForecastItemPayload struct {
	Dt      int64              `json:"dt"`
	DtTxt   string             `json:"dt_txt"`
	Main    payloadMain        `json:"main"`
	Wind    payloadWind        `json:"wind"`
	Clouds  payloadClouds      `json:"clouds"`
	Rain    *payloadPrecip     `json:"rain"`
	Pop     *float64           `json:"pop"`
	Weather []payloadCondition `json:"weather"`
}

// ForecastPayload is the forecast-list response.
type ForecastPayload struct {
	List []ForecastItemPayload `json:"list"`
	City struct {
		Timezone *int   `json:"timezone"`
		Sunrise  *int64 `json:"sunrise"`
		Sunset   *int64 `json:"sunset"`
	} `json:"city"`
}

// AirQualityPayload is the air-pollution response.
type AirQualityPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI *int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}
