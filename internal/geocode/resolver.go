// Package geocode resolves free-text locations to coordinates through a cached
// upstream geocoder and serves city-name suggestions.
package geocode

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/skypulse/internal/common"
	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
)

// Geocoder is an upstream forward/reverse lookup. An empty result with a nil error
// means nothing matched.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]weather.Coordinates, error)
	Reverse(ctx context.Context, lat, lon float64) ([]weather.Coordinates, error)
}

const (
	MaxSuggestions      = 8
	MinSuggestionLength = 2
)

var latLonPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// Resolver implements weather.Resolver. It never returns errors: every failure is logged
// and reported as not found.
type Resolver struct {
	geocoder Geocoder
	cache    Cache
	metrics  *metrics.Registry
}

func NewResolver(g Geocoder, cache Cache, m *metrics.Registry) *Resolver {
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheSize, DefaultCacheTTL, nil)
	}
	return &Resolver{geocoder: g, cache: cache, metrics: m}
}

// CacheSize reports the number of live cache entries.
func (r *Resolver) CacheSize(ctx context.Context) int {
	return r.cache.Len(ctx)
}

// PurgeCache drops every cached lookup.
func (r *Resolver) PurgeCache(ctx context.Context) {
	n := r.cache.Len(ctx)
	r.cache.Purge(ctx)
	logger.GetLogger().Infow("Geocode cache purged", "entries", n)
}

// ParseLatLon recognizes "lat,lon" input.
func ParseLatLon(query string) (lat, lon float64, ok bool) {
	m := latLonPattern.FindStringSubmatch(query)
	if m == nil {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(m[1], 64)
	lon, errLon := strconv.ParseFloat(m[2], 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// Coordinates resolves query. "lat,lon" input is parsed without a network call; other
// queries are served from the cache or a limit-1 upstream search.
func (r *Resolver) Coordinates(ctx context.Context, query string) (*weather.Coordinates, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, false
	}
	if lat, lon, ok := ParseLatLon(trimmed); ok {
		return &weather.Coordinates{Lat: lat, Lon: lon, Name: trimmed}, true
	}

	key := common.NormalizeKey(trimmed)
	if cached, ok := r.cache.Get(ctx, key); ok {
		r.metrics.CacheLookup(true)
		return &cached, true
	}
	r.metrics.CacheLookup(false)

	results, err := r.geocoder.Search(ctx, trimmed, 1)
	if err != nil {
		r.logFailure("Geocoding failed", trimmed, err)
		return nil, false
	}
	if len(results) == 0 {
		logger.GetLogger().Infow("Location not found", "query", trimmed)
		return nil, false
	}

	found := results[0]
	r.cache.Set(ctx, key, found)
	return &found, true
}

// CityFromCoordinates is the reverse lookup. Results are not cached.
func (r *Resolver) CityFromCoordinates(ctx context.Context, lat, lon float64) (*weather.Coordinates, bool) {
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return nil, false
	}
	results, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		r.logFailure("Reverse geocoding failed", strconv.FormatFloat(lat, 'f', 4, 64)+","+strconv.FormatFloat(lon, 'f', 4, 64), err)
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}
	found := results[0]
	return &found, true
}

// Suggestions returns up to MaxSuggestions matches in upstream rank order and caches
// each one under its lowercase name. Short and coordinate-like input return nothing.
func (r *Resolver) Suggestions(ctx context.Context, query string) []weather.Coordinates {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < MinSuggestionLength {
		return []weather.Coordinates{}
	}
	if _, _, ok := ParseLatLon(trimmed); ok {
		return []weather.Coordinates{}
	}

	results, err := r.geocoder.Search(ctx, trimmed, MaxSuggestions)
	if err != nil || ctx.Err() != nil {
		if ctx.Err() == nil {
			r.logFailure("Suggestion lookup failed", trimmed, err)
		}
		return []weather.Coordinates{}
	}
	if len(results) > MaxSuggestions {
		results = results[:MaxSuggestions]
	}
	for _, c := range results {
		if c.Name != "" {
			r.cache.Set(ctx, common.NormalizeKey(c.Name), c)
		}
	}
	return results
}

func (r *Resolver) logFailure(msg, query string, err error) {
	log := logger.GetLogger()
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		log.Debugw(msg, "query", query, "error", err)
	case errors.Is(err, weather.ErrUnauthorized):
		log.Errorw(msg+": geocoding API key rejected", "query", query, "error", err)
	case errors.Is(err, weather.ErrRateLimited):
		log.Warnw(msg+": geocoding rate limit reached", "query", query, "error", err)
	default:
		log.Warnw(msg, "query", query, "error", err)
	}
}
