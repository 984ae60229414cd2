package geocode

import (
	"context"
	"errors"

	"github.com/i474232898/skypulse/internal/weather"
)

// Chain tries each geocoder in order and returns the first non-empty result. Without a
// result, any geocoder error is returned joined so auth and quota failures stay visible.
type Chain []Geocoder

func (c Chain) Search(ctx context.Context, query string, limit int) ([]weather.Coordinates, error) {
	return c.first(ctx, func(g Geocoder) ([]weather.Coordinates, error) {
		return g.Search(ctx, query, limit)
	})
}

func (c Chain) Reverse(ctx context.Context, lat, lon float64) ([]weather.Coordinates, error) {
	return c.first(ctx, func(g Geocoder) ([]weather.Coordinates, error) {
		return g.Reverse(ctx, lat, lon)
	})
}

func (c Chain) first(ctx context.Context, call func(Geocoder) ([]weather.Coordinates, error)) ([]weather.Coordinates, error) {
	var errs []error
	for _, g := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results, err := call(g)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}
