package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
)

// Composer builds one Data aggregate per fetch cycle from the upstream source.
type Composer struct {
	source     Source
	resolver   Resolver
	clock      clock.Clock
	metrics    *metrics.Registry
	classifier Classifier
	aggregator Aggregator
	insights   InsightEngine
}

// NewComposer wires the pipeline. The same precipitation policy is handed to the
// classifier and the insight engine. resolver and m may be nil.
func NewComposer(source Source, resolver Resolver, policy PrecipitationPolicy, clk clock.Clock, m *metrics.Registry) *Composer {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &Composer{
		source:     source,
		resolver:   resolver,
		clock:      clk,
		metrics:    m,
		classifier: NewClassifier(policy),
		aggregator: NewAggregator(),
		insights:   NewInsightEngine(policy),
	}
}

// ValidateCoordinates rejects NaN, infinite and out-of-range input.
func ValidateCoordinates(lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || math.IsInf(lat, 0):
		return fmt.Errorf("%w: latitude is not a number", ErrInvalidCoordinates)
	case math.IsNaN(lon) || math.IsInf(lon, 0):
		return fmt.Errorf("%w: longitude is not a number", ErrInvalidCoordinates)
	case lat < -90 || lat > 90:
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", ErrInvalidCoordinates, lat)
	case lon < -180 || lon > 180:
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", ErrInvalidCoordinates, lon)
	}
	return nil
}

// ComposeQuery resolves a free-text location and composes it.
func (c *Composer) ComposeQuery(ctx context.Context, query string, unit Unit) (*Data, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}
	coords, ok := c.resolver.Coordinates(ctx, query)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
	}
	return c.Compose(ctx, *coords, unit)
}

// Compose runs one cycle: validate, current (fatal), forecast (soft), air quality (soft).
func (c *Composer) Compose(ctx context.Context, coords Coordinates, unit Unit) (*Data, error) {
	log := logger.GetLogger()
	started := c.clock.Now()

	if unit == "" {
		unit = UnitMetric
	}
	if err := ValidateCoordinates(coords.Lat, coords.Lon); err != nil {
		c.metrics.Composition(metrics.OutcomeError, 0)
		return nil, err
	}

	rawCurrent, err := c.source.Current(ctx, coords.Lat, coords.Lon, unit)
	if err != nil {
		c.metrics.Composition(metrics.OutcomeError, c.clock.Since(started).Seconds())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Errorw("Current weather fetch failed", "lat", coords.Lat, "lon", coords.Lon, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCurrentUnavailable, err)
	}

	now := c.clock.Now().UTC()
	current := NormalizeCurrent(rawCurrent)
	if current.Timestamp.IsZero() {
		current.Timestamp = now
	}
	tz := 0
	if rawCurrent.Timezone != nil {
		tz = *rawCurrent.Timezone
	}
	if coords.Name == "" && rawCurrent.Name != "" {
		coords.Name = rawCurrent.Name
		coords.Country = rawCurrent.Sys.Country
	}

	degraded := false

	var list []Slot
	rawForecast, err := c.source.Forecast(ctx, coords.Lat, coords.Lon, unit)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		degraded = true
		log.Warnw("Forecast fetch failed; hourly and daily sections will be empty", "lat", coords.Lat, "lon", coords.Lon, "error", err)
	default:
		list = NormalizeForecast(rawForecast)
	}

	var air *AirQuality
	rawAir, err := c.source.AirQuality(ctx, coords.Lat, coords.Lon)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		degraded = true
		log.Warnw("Air quality fetch failed; section will be empty", "lat", coords.Lat, "lon", coords.Lon, "error", err)
	default:
		air = NormalizeAirQuality(rawAir)
	}

	data := c.assemble(coords, unit, tz, now, current, list, air)

	outcome := metrics.OutcomeOK
	if degraded {
		outcome = metrics.OutcomeDegraded
	}
	c.metrics.Composition(outcome, c.clock.Since(started).Seconds())
	log.Debugw("Composed weather", "location", data.Current.Location, "hourly", len(data.Hourly), "daily", len(data.Forecast), "degraded", degraded)
	return data, nil
}

// assemble aggregates the forecast and classifies every slot exactly once.
func (c *Composer) assemble(coords Coordinates, unit Unit, tz int, now time.Time, current Slot, list []Slot, air *AirQuality) *Data {
	sun := current.SunTimes()

	hourly := c.aggregator.Hourly(current, list, tz, now)
	for i := range hourly {
		hourly[i].Sky = c.classifier.Classify(hourly[i].Slot, sun, tz)
	}
	daily := c.aggregator.Daily(current, list, tz)
	for i := range daily {
		daily[i].Sky = c.classifier.Classify(daily[i].Slot, sun, tz)
	}
	if hourly == nil {
		hourly = []HourlyItem{}
	}
	if daily == nil {
		daily = []ForecastItem{}
	}

	moon := MoonIllumination(now)

	return &Data{
		Current: CurrentWeather{
			Slot:        current,
			Location:    coords.Label(),
			SunriseText: localClock(current.Sunrise, tz),
			SunsetText:  localClock(current.Sunset, tz),
			Sky:         c.classifier.Classify(current, sun, tz),
		},
		Forecast:              daily,
		Hourly:                hourly,
		AirQuality:            air,
		TimezoneOffsetSeconds: tz,
		MoonIllumination:      &moon,
		Unit:                  unit,
		Coordinates:           coords,
		FetchedAt:             now,
	}
}

// Derive computes the derived keys for a composed cycle.
func (c *Composer) Derive(data *Data) Derived {
	return c.insights.Derive(data)
}

func localClock(t time.Time, tzOffsetSeconds int) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.FixedZone("", tzOffsetSeconds)).Format("15:04")
}
