package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/weather"
)

type AppConfig struct {
	OpenWeatherAPIKey string `validate:"required"`
	// GoogleAPIKey enables the fallback geocoder when set.
	GoogleAPIKey string

	HTTPTimeout time.Duration `validate:"gt=0"`

	// RefreshInterval controls how often the active dashboard location is refetched.
	RefreshInterval time.Duration `validate:"gte=1m"`

	GeocodeCacheSize int           `validate:"gt=0"`
	GeocodeCacheTTL  time.Duration `validate:"gt=0"`

	// RedisAddr switches the geocode cache to Redis when set.
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	PrecipitationThresholdMm float64       `validate:"gte=0"`
	AutocompleteDebounce     time.Duration `validate:"gt=0"`
	MaxSavedLocations        int           `validate:"gt=0"`

	// DefaultLocation is loaded into the session at startup when set.
	DefaultLocation string

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults. A .env file in the
// working directory is loaded first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.GetLogger().Debugw("No .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv builds and validates the config from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		GoogleAPIKey:      os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		DefaultLocation:   os.Getenv("DEFAULT_LOCATION"),
		Port:              getenvDefault("PORT", "8080"),
		GeocodeCacheSize:  getenvInt("GEOCODE_CACHE_SIZE", 256),
		RedisDB:           getenvInt("REDIS_DB", 0),
		MaxSavedLocations: getenvInt("MAX_SAVED_LOCATIONS", 20),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "10m"); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.AutocompleteDebounce, err = getenvDuration("AUTOCOMPLETE_DEBOUNCE", "300ms"); err != nil {
		return nil, err
	}

	cfg.PrecipitationThresholdMm = weather.DefaultPrecipitationPolicy.ThresholdMm
	if v := os.Getenv("PRECIPITATION_THRESHOLD_MM"); v != "" {
		if cfg.PrecipitationThresholdMm, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid PRECIPITATION_THRESHOLD_MM: %w", err)
		}
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
