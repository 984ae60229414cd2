package weather

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skypulse/internal/metrics"
)

// fixtureNow is the dt of currentFixture: 2026-06-01 11:00 UTC, 12:00 local.
var fixtureNow = time.Unix(1780311600, 0).UTC()

const airFixture = `{"list": [{"dt": 1780311600, "main": {"aqi": 2}, "components": {"pm2_5": 10, "pm10": 18}}]}`

func newFixtureSource(t *testing.T) *fakeSource {
	t.Helper()
	return &fakeSource{
		current:  decode[CurrentPayload](t, currentFixture),
		forecast: forecastFixture(fixtureNow.Add(time.Hour).Unix()),
		air:      decode[AirQualityPayload](t, airFixture),
	}
}

func newTestComposer(src Source, resolver Resolver, m *metrics.Registry) *Composer {
	return NewComposer(src, resolver, DefaultPrecipitationPolicy, fakeclock.NewFakeClock(fixtureNow), m)
}

func TestComposeFullCycle(t *testing.T) {
	src := newFixtureSource(t)
	m := metrics.New()
	c := newTestComposer(src, nil, m)

	data, err := c.Compose(context.Background(), Coordinates{Lat: 48.85, Lon: 2.35}, UnitMetric)
	require.NoError(t, err)

	assert.Equal(t, "Paris, FR", data.Current.Location)
	assert.Equal(t, "05:00", data.Current.SunriseText)
	assert.Equal(t, "17:00", data.Current.SunsetText)
	assert.Equal(t, 3600, data.TimezoneOffsetSeconds)
	assert.Equal(t, UnitMetric, data.Unit)
	assert.Equal(t, fixtureNow, data.FetchedAt)

	assert.Equal(t, ConditionRain, data.Current.Sky.Condition)
	assert.Equal(t, IconRainSun, data.Current.Sky.Icon)
	assert.False(t, data.Current.Sky.IsNight)

	require.Len(t, data.Hourly, 48)
	assert.Equal(t, *data.Current.Temperature, *data.Hourly[0].Temperature)
	assert.Equal(t, data.Current.Sky, data.Hourly[0].Sky)
	assert.Equal(t, "12:00", data.Hourly[0].Label)

	require.Len(t, data.Forecast, 5)
	assert.Equal(t, "2026-06-01", data.Forecast[0].Date)
	assert.Equal(t, 22.0, data.Forecast[0].Max, "live temperature folds into day one")
	assert.Equal(t, 15.0, data.Forecast[0].Min)
	for _, d := range data.Forecast {
		assert.Equal(t, ConditionClear, d.Sky.Condition, "thin clouds without rain")
	}

	require.NotNil(t, data.AirQuality)
	require.NotNil(t, data.AirQuality.AQI)
	assert.Equal(t, 42, *data.AirQuality.AQI)

	require.NotNil(t, data.MoonIllumination)
	assert.GreaterOrEqual(t, *data.MoonIllumination, 0.0)
	assert.LessOrEqual(t, *data.MoonIllumination, 100.0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compositions.WithLabelValues(metrics.OutcomeOK)))
}

func TestComposeKeepsResolvedName(t *testing.T) {
	c := newTestComposer(newFixtureSource(t), nil, nil)
	data, err := c.Compose(context.Background(), Coordinates{Lat: 48.85, Lon: 2.35, Name: "Montmartre", Country: "FR"}, UnitMetric)
	require.NoError(t, err)
	assert.Equal(t, "Montmartre, FR", data.Current.Location)
}

func TestComposeRejectsInvalidCoordinates(t *testing.T) {
	src := newFixtureSource(t)
	c := newTestComposer(src, nil, nil)

	for _, coords := range []Coordinates{
		{Lat: 95, Lon: 0},
		{Lat: 0, Lon: -181},
		{Lat: math.NaN(), Lon: 0},
		{Lat: 0, Lon: math.Inf(1)},
	} {
		_, err := c.Compose(context.Background(), coords, UnitMetric)
		assert.ErrorIs(t, err, ErrInvalidCoordinates)
	}
	cur, fc, air := src.calls()
	assert.Zero(t, cur+fc+air, "validation must happen before any fetch")
}

func TestComposeForecastFailureIsSoft(t *testing.T) {
	src := newFixtureSource(t)
	src.forecastErr = errors.New("forecast down")
	m := metrics.New()
	c := newTestComposer(src, nil, m)

	data, err := c.Compose(context.Background(), Coordinates{Lat: 48.85, Lon: 2.35}, UnitMetric)
	require.NoError(t, err)
	assert.NotNil(t, data.Hourly)
	assert.Empty(t, data.Hourly)
	assert.NotNil(t, data.Forecast)
	assert.Empty(t, data.Forecast)
	assert.NotNil(t, data.AirQuality)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compositions.WithLabelValues(metrics.OutcomeDegraded)))
}

func TestComposeAirQualityFailureIsSoft(t *testing.T) {
	src := newFixtureSource(t)
	src.airErr = errors.New("air down")
	c := newTestComposer(src, nil, nil)

	data, err := c.Compose(context.Background(), Coordinates{Lat: 48.85, Lon: 2.35}, UnitMetric)
	require.NoError(t, err)
	assert.Nil(t, data.AirQuality)
	assert.Len(t, data.Hourly, 48)

	d := c.Derive(data)
	assert.Equal(t, "unknown", d.AQICategoryKey)
}

func TestComposeCurrentFailureIsFatal(t *testing.T) {
	src := newFixtureSource(t)
	src.currentErr = errors.New("boom")
	c := newTestComposer(src, nil, nil)

	data, err := c.Compose(context.Background(), Coordinates{Lat: 1, Lon: 1}, UnitMetric)
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrCurrentUnavailable)
	_, fc, air := src.calls()
	assert.Zero(t, fc)
	assert.Zero(t, air)
}

func TestComposeCancelledReturnsContextError(t *testing.T) {
	src := newFixtureSource(t)
	src.currentErr = context.Canceled
	c := newTestComposer(src, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Compose(ctx, Coordinates{Lat: 1, Lon: 1}, UnitMetric)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCurrentUnavailable)
}

func TestComposeFillsMissingObservationTime(t *testing.T) {
	src := newFixtureSource(t)
	src.current.Dt = 0
	c := newTestComposer(src, nil, nil)

	data, err := c.Compose(context.Background(), Coordinates{Lat: 1, Lon: 1}, UnitMetric)
	require.NoError(t, err)
	assert.Equal(t, fixtureNow, data.Current.Timestamp)
}

func TestComposeQuery(t *testing.T) {
	src := newFixtureSource(t)

	missing := &fakeResolver{}
	_, err := newTestComposer(src, missing, nil).ComposeQuery(context.Background(), "Atlantis", UnitMetric)
	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.Equal(t, 1, missing.calls)

	_, err = newTestComposer(src, nil, nil).ComposeQuery(context.Background(), "Paris", UnitMetric)
	assert.ErrorIs(t, err, ErrLocationNotFound)

	found := &fakeResolver{coords: &Coordinates{Lat: 48.85, Lon: 2.35, Name: "Paris", Country: "FR"}}
	data, err := newTestComposer(src, found, nil).ComposeQuery(context.Background(), "paris", UnitImperial)
	require.NoError(t, err)
	assert.Equal(t, UnitImperial, data.Unit)
	assert.Equal(t, 48.85, data.Coordinates.Lat)
}

func TestValidateCoordinatesBounds(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(90, 180))
	assert.NoError(t, ValidateCoordinates(-90, -180))
	assert.ErrorIs(t, ValidateCoordinates(90.0001, 0), ErrInvalidCoordinates)
}
