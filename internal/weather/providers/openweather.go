package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
)

const (
	openWeatherDataURL = "https://api.openweathermap.org/data/2.5"
	openWeatherGeoURL  = "https://api.openweathermap.org/geo/1.0"
)

// OpenWeather implements weather.Source plus the direct and reverse geo endpoints.
type OpenWeather struct {
	apiKey   string
	dataURL  string
	geoURL   string
	httpCfg  HTTPClientConfig
	geoCfg   HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
	geoBreak *gobreaker.CircuitBreaker
	metrics  *metrics.Registry
}

// OpenWeatherOption customises the client.
type OpenWeatherOption func(*OpenWeather)

// WithBaseURLs points the client at different data and geo roots (tests, proxies).
func WithBaseURLs(dataURL, geoURL string) OpenWeatherOption {
	return func(p *OpenWeather) {
		p.dataURL = dataURL
		p.geoURL = geoURL
	}
}

// WithBackoff overrides the retry policy of the weather endpoints.
func WithBackoff(b BackoffConfig) OpenWeatherOption {
	return func(p *OpenWeather) { p.httpCfg.Backoff = b }
}

// WithMetrics records one upstream counter per call.
func WithMetrics(m *metrics.Registry) OpenWeatherOption {
	return func(p *OpenWeather) { p.metrics = m }
}

func NewOpenWeather(client *http.Client, apiKey string, opts ...OpenWeatherOption) *OpenWeather {
	p := &OpenWeather{
		apiKey:   apiKey,
		dataURL:  openWeatherDataURL,
		geoURL:   openWeatherGeoURL,
		httpCfg:  HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		geoCfg:   HTTPClientConfig{Client: client, Backoff: NoRetry},
		circuit:  newBreaker("openweather"),
		geoBreak: newBreaker("openweather-geo"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeather) Current(ctx context.Context, lat, lon float64, unit weather.Unit) (weather.CurrentPayload, error) {
	var out weather.CurrentPayload
	err := p.data(ctx, "current", "/weather", lat, lon, unit, &out)
	return out, err
}

func (p *OpenWeather) Forecast(ctx context.Context, lat, lon float64, unit weather.Unit) (weather.ForecastPayload, error) {
	var out weather.ForecastPayload
	err := p.data(ctx, "forecast", "/forecast", lat, lon, unit, &out)
	return out, err
}

func (p *OpenWeather) AirQuality(ctx context.Context, lat, lon float64) (weather.AirQualityPayload, error) {
	var out weather.AirQualityPayload
	err := p.data(ctx, "air_pollution", "/air_pollution", lat, lon, "", &out)
	return out, err
}

func (p *OpenWeather) data(ctx context.Context, source, path string, lat, lon float64, unit weather.Unit, out any) error {
	if p.apiKey == "" {
		return fmt.Errorf("openweather: %w", errNoAPIKey)
	}
	values := p.coordValues(lat, lon)
	if unit != "" {
		values.Set("units", string(unit))
	}
	err := getJSON(ctx, p.httpCfg, p.circuit, p.dataURL+path+"?"+values.Encode(), out)
	p.record(source, err)
	if err != nil {
		return fmt.Errorf("openweather %s: %w", source, err)
	}
	return nil
}

type geoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

func (g geoResult) coordinates() weather.Coordinates {
	return weather.Coordinates{Lat: g.Lat, Lon: g.Lon, Name: g.Name, Country: g.Country, State: g.State}
}

// Search calls geo/1.0/direct. Results keep upstream rank order.
func (p *OpenWeather) Search(ctx context.Context, query string, limit int) ([]weather.Coordinates, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather geo: %w", errNoAPIKey)
	}
	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))
	values.Set("appid", p.apiKey)
	return p.geo(ctx, "geo_direct", p.geoURL+"/direct?"+values.Encode())
}

// Reverse calls geo/1.0/reverse with limit 1.
func (p *OpenWeather) Reverse(ctx context.Context, lat, lon float64) ([]weather.Coordinates, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather geo: %w", errNoAPIKey)
	}
	values := p.coordValues(lat, lon)
	values.Set("limit", "1")
	return p.geo(ctx, "geo_reverse", p.geoURL+"/reverse?"+values.Encode())
}

func (p *OpenWeather) geo(ctx context.Context, source, u string) ([]weather.Coordinates, error) {
	var results []geoResult
	err := getJSON(ctx, p.geoCfg, p.geoBreak, u, &results)
	if err == nil && len(results) == 0 {
		p.metrics.Upstream(source, metrics.OutcomeNotFound)
		return nil, nil
	}
	p.record(source, err)
	if err != nil {
		if errors.Is(err, weather.ErrUnauthorized) {
			logger.GetLogger().Errorw("OpenWeather rejected api key", "source", source, "key", logger.MaskKey(p.apiKey))
		}
		return nil, fmt.Errorf("openweather %s: %w", source, err)
	}

	out := make([]weather.Coordinates, 0, len(results))
	for _, r := range results {
		out = append(out, r.coordinates())
	}
	return out, nil
}

func (p *OpenWeather) coordValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	return values
}

func (p *OpenWeather) record(source string, err error) {
	if err != nil {
		p.metrics.Upstream(source, metrics.OutcomeError)
		return
	}
	p.metrics.Upstream(source, metrics.OutcomeOK)
}
