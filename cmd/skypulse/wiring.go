package main

import (
	"context"
	"net/http"

	"code.cloudfoundry.org/clock"
	"github.com/redis/go-redis/v9"

	"github.com/i474232898/skypulse/internal/config"
	"github.com/i474232898/skypulse/internal/geocode"
	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
	"github.com/i474232898/skypulse/internal/weather/providers"
)

// runtime holds the wired components shared by every subcommand.
type runtime struct {
	cfg      *config.AppConfig
	clock    clock.Clock
	metrics  *metrics.Registry
	redis    *redis.Client
	resolver *geocode.Resolver
	composer *weather.Composer
	radar    *providers.RainViewer
}

func newRuntime(ctx context.Context) (*runtime, error) {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	clk := clock.NewClock()
	m := metrics.New()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	ow := providers.NewOpenWeather(httpClient, cfg.OpenWeatherAPIKey, providers.WithMetrics(m))

	geocoders := geocode.Chain{ow}
	if cfg.GoogleAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleAPIKey, m))
		log.Infow("Google geocoder enabled as fallback")
	}

	rt := &runtime{cfg: cfg, clock: clk, metrics: m}

	var cache geocode.Cache
	if cfg.RedisAddr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			log.Warnw("Redis unreachable; using in-memory geocode cache", "addr", cfg.RedisAddr, "error", err)
			rt.redis.Close()
			rt.redis = nil
		} else {
			cache = geocode.NewRedisCache(rt.redis, cfg.GeocodeCacheTTL)
			log.Infow("Geocode cache backed by Redis", "addr", cfg.RedisAddr)
		}
	}
	if cache == nil {
		cache = geocode.NewMemoryCache(cfg.GeocodeCacheSize, cfg.GeocodeCacheTTL, clk)
	}

	rt.resolver = geocode.NewResolver(geocoders, cache, m)
	rt.composer = weather.NewComposer(ow, rt.resolver,
		weather.PrecipitationPolicy{ThresholdMm: cfg.PrecipitationThresholdMm}, clk, m)
	rt.radar = providers.NewRainViewer(httpClient, m)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
}
