package weather

import (
	"context"
)

// Source abstracts the upstream weather API. Each call returns the raw payload;
// normalisation stays in this package.
type Source interface {
	Current(ctx context.Context, lat, lon float64, unit Unit) (CurrentPayload, error)
	Forecast(ctx context.Context, lat, lon float64, unit Unit) (ForecastPayload, error)
	AirQuality(ctx context.Context, lat, lon float64) (AirQualityPayload, error)
}

// Resolver turns free-text queries into coordinates. Failures are soft: ok is false.
type Resolver interface {
	Coordinates(ctx context.Context, query string) (*Coordinates, bool)
}
