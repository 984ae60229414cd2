package geocode

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
)

func TestCoordinatesParsesLatLonWithoutNetwork(t *testing.T) {
	g := &fakeGeocoder{}
	r := NewResolver(g, nil, nil)

	got, ok := r.Coordinates(context.Background(), "  48.85, 2.35 ")
	require.True(t, ok)
	assert.Equal(t, weather.Coordinates{Lat: 48.85, Lon: 2.35, Name: "48.85, 2.35"}, *got)

	got, ok = r.Coordinates(context.Background(), "-33.9,-70")
	require.True(t, ok)
	assert.Equal(t, -33.9, got.Lat)
	assert.Equal(t, -70.0, got.Lon)

	assert.Empty(t, g.searchCalls())
}

func TestCoordinatesEmptyQuery(t *testing.T) {
	g := &fakeGeocoder{results: []weather.Coordinates{paris}}
	r := NewResolver(g, nil, nil)

	_, ok := r.Coordinates(context.Background(), "   ")
	assert.False(t, ok)
	assert.Empty(t, g.searchCalls())
}

func TestCoordinatesCachesByNormalizedQuery(t *testing.T) {
	g := &fakeGeocoder{results: []weather.Coordinates{paris}}
	m := metrics.New()
	r := NewResolver(g, NewMemoryCache(8, time.Hour, nil), m)
	ctx := context.Background()

	first, ok := r.Coordinates(ctx, "Paris")
	require.True(t, ok)
	second, ok := r.Coordinates(ctx, "  paris ")
	require.True(t, ok)

	assert.Equal(t, *first, *second)
	assert.Equal(t, []string{"Paris"}, g.searchCalls())
	assert.Equal(t, []int{1}, g.limits)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")))
}

func TestPurgeCacheForcesFreshLookup(t *testing.T) {
	g := &fakeGeocoder{results: []weather.Coordinates{paris}}
	r := NewResolver(g, NewMemoryCache(8, time.Hour, nil), nil)
	ctx := context.Background()

	_, ok := r.Coordinates(ctx, "Paris")
	require.True(t, ok)
	assert.Equal(t, 1, r.CacheSize(ctx))

	r.PurgeCache(ctx)
	assert.Zero(t, r.CacheSize(ctx))

	_, ok = r.Coordinates(ctx, "Paris")
	require.True(t, ok)
	assert.Len(t, g.searchCalls(), 2)
}

func TestCoordinatesRefetchAfterTTL(t *testing.T) {
	clk := fakeclock.NewFakeClock(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	g := &fakeGeocoder{results: []weather.Coordinates{paris}}
	r := NewResolver(g, NewMemoryCache(8, time.Hour, clk), nil)
	ctx := context.Background()

	r.Coordinates(ctx, "Paris")
	clk.Increment(59 * time.Minute)
	r.Coordinates(ctx, "Paris")
	assert.Len(t, g.searchCalls(), 1)

	clk.Increment(2 * time.Minute)
	r.Coordinates(ctx, "Paris")
	assert.Len(t, g.searchCalls(), 2)
}

func TestCoordinatesSoftFailures(t *testing.T) {
	for _, err := range []error{
		weather.ErrUnauthorized,
		fmt.Errorf("openweather geo_direct: %w", weather.ErrRateLimited),
		errors.New("connection reset"),
		nil, // empty result set
	} {
		g := &fakeGeocoder{err: err}
		cache := NewMemoryCache(8, time.Hour, nil)
		r := NewResolver(g, cache, nil)

		got, ok := r.Coordinates(context.Background(), "Paris")
		assert.False(t, ok, "error %v", err)
		assert.Nil(t, got)
		assert.Zero(t, cache.Len(context.Background()), "failures are not cached")
	}
}

func TestCityFromCoordinatesIsNotCached(t *testing.T) {
	g := &fakeGeocoder{reverse: []weather.Coordinates{{Lat: 45.76, Lon: 4.83, Name: "Lyon", Country: "FR"}}}
	cache := NewMemoryCache(8, time.Hour, nil)
	r := NewResolver(g, cache, nil)
	ctx := context.Background()

	got, ok := r.CityFromCoordinates(ctx, 45.76, 4.83)
	require.True(t, ok)
	assert.Equal(t, "Lyon", got.Name)
	r.CityFromCoordinates(ctx, 45.76, 4.83)
	assert.Equal(t, 2, g.reverses)
	assert.Zero(t, cache.Len(ctx))

	_, ok = r.CityFromCoordinates(ctx, 100, 0)
	assert.False(t, ok)
	assert.Equal(t, 2, g.reverses, "invalid coordinates never reach the upstream")

	g.err = weather.ErrUnauthorized
	_, ok = r.CityFromCoordinates(ctx, 45.76, 4.83)
	assert.False(t, ok)
}

func TestSuggestions(t *testing.T) {
	var many []weather.Coordinates
	for i := 0; i < 10; i++ {
		many = append(many, weather.Coordinates{Lat: float64(i), Lon: float64(i), Name: fmt.Sprintf("Paris %d", i)})
	}
	many[0] = paris
	g := &fakeGeocoder{results: many}
	r := NewResolver(g, NewMemoryCache(32, time.Hour, nil), nil)
	ctx := context.Background()

	assert.Empty(t, r.Suggestions(ctx, " p "))
	assert.Empty(t, r.Suggestions(ctx, "48.8,2.3"))
	assert.Empty(t, g.searchCalls())

	got := r.Suggestions(ctx, "par")
	require.Len(t, got, MaxSuggestions)
	assert.Equal(t, paris, got[0])
	assert.Equal(t, []int{MaxSuggestions}, g.limits)

	// Picking a suggestion resolves from the cache.
	resolved, ok := r.Coordinates(ctx, "paris")
	require.True(t, ok)
	assert.Equal(t, paris, *resolved)
	assert.Len(t, g.searchCalls(), 1)
}

func TestSuggestionsCancelledWritesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := &fakeGeocoder{results: []weather.Coordinates{paris}, onSearch: cancel}
	cache := NewMemoryCache(8, time.Hour, nil)
	r := NewResolver(g, cache, nil)

	assert.Empty(t, r.Suggestions(ctx, "Paris"))
	assert.Zero(t, cache.Len(context.Background()))
}

func TestSuggestionsUpstreamError(t *testing.T) {
	r := NewResolver(&fakeGeocoder{err: weather.ErrRateLimited}, nil, nil)
	got := r.Suggestions(context.Background(), "Paris")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		in  string
		ok  bool
		lat float64
		lon float64
	}{
		{"1,2", true, 1, 2},
		{" -1.5 , 2.25 ", true, -1.5, 2.25},
		{"1.,2", false, 0, 0},
		{"Paris", false, 0, 0},
		{"1,2,3", false, 0, 0},
	}
	for _, tt := range tests {
		lat, lon, ok := ParseLatLon(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.lat, lat, tt.in)
		assert.Equal(t, tt.lon, lon, tt.in)
	}
}
