package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/weather"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 256, cfg.GeocodeCacheSize)
	assert.Equal(t, 24*time.Hour, cfg.GeocodeCacheTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.AutocompleteDebounce)
	assert.Equal(t, weather.DefaultPrecipitationPolicy.ThresholdMm, cfg.PrecipitationThresholdMm)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GEOCODE_CACHE_SIZE", "32")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("PORT", "9090")
	t.Setenv("PRECIPITATION_THRESHOLD_MM", "0.5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 32, cfg.GeocodeCacheSize)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 0.5, cfg.PrecipitationThresholdMm)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"missing key":      {"OPENWEATHER_API_KEY": ""},
		"bad duration":     {"OPENWEATHER_API_KEY": "key", "HTTP_TIMEOUT": "soon"},
		"short interval":   {"OPENWEATHER_API_KEY": "key", "REFRESH_INTERVAL": "10s"},
		"bad threshold":    {"OPENWEATHER_API_KEY": "key", "PRECIPITATION_THRESHOLD_MM": "wet"},
		"bad redis":        {"OPENWEATHER_API_KEY": "key", "REDIS_ADDR": "not an address"},
		"negative cache":   {"OPENWEATHER_API_KEY": "key", "GEOCODE_CACHE_SIZE": "-1"},
		"non numeric port": {"OPENWEATHER_API_KEY": "key", "PORT": "http"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
