package providers

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
)

// GoogleGeocoder is the optional fallback geocoder backed by the Google Geocoding API.
// The underlying library keeps its key in a package variable and takes no context, so
// calls run in a goroutine that is abandoned when ctx ends.
type GoogleGeocoder struct {
	metrics *metrics.Registry
}

func NewGoogleGeocoder(apiKey string, m *metrics.Registry) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{metrics: m}
}

// Search returns at most one match; the library exposes only the top result.
func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Coordinates, error) {
	loc, err := run(ctx, func() (geocoder.Location, error) {
		return geocoder.Geocoding(geocoder.Address{City: query})
	})
	if err != nil {
		g.metrics.Upstream("google_geocode", metrics.OutcomeError)
		return nil, fmt.Errorf("google geocode: %w", err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		g.metrics.Upstream("google_geocode", metrics.OutcomeNotFound)
		return nil, nil
	}
	g.metrics.Upstream("google_geocode", metrics.OutcomeOK)
	return []weather.Coordinates{{Lat: loc.Latitude, Lon: loc.Longitude, Name: query}}, nil
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, lat, lon float64) ([]weather.Coordinates, error) {
	addresses, err := run(ctx, func() ([]geocoder.Address, error) {
		return geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	})
	if err != nil {
		g.metrics.Upstream("google_reverse", metrics.OutcomeError)
		return nil, fmt.Errorf("google reverse geocode: %w", err)
	}
	for _, a := range addresses {
		if a.City == "" {
			continue
		}
		g.metrics.Upstream("google_reverse", metrics.OutcomeOK)
		return []weather.Coordinates{{Lat: lat, Lon: lon, Name: a.City, Country: a.Country, State: a.State}}, nil
	}
	g.metrics.Upstream("google_reverse", metrics.OutcomeNotFound)
	return nil, nil
}

func run[T any](ctx context.Context, call func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-done:
		return r.v, r.err
	}
}
