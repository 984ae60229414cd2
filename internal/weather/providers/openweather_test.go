package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/weather"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

type upstream struct {
	*httptest.Server
	hits   atomic.Int32
	status atomic.Int32
	delay  atomic.Int64
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	respond := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			u.hits.Add(1)
			if d := time.Duration(u.delay.Load()); d > 0 {
				select {
				case <-time.After(d):
				case <-r.Context().Done():
					return
				}
			}
			if code := int(u.status.Load()); code != 0 {
				w.WriteHeader(code)
				return
			}
			if r.URL.Query().Get("appid") != "test-key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}
	mux.HandleFunc("/data/weather", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("units") != "imperial" || q.Get("lat") != "48.85" || q.Get("lon") != "2.35" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		respond(`{"dt": 1780311600, "timezone": 3600, "name": "Paris", "main": {"temp": 71.6}, "sys": {"country": "FR"}}`)(w, r)
	})
	mux.HandleFunc("/data/forecast", respond(`{"list": [{"dt": 1780315200, "main": {"temp": 70}}, {"dt": 1780326000, "main": {"temp": 68}}]}`))
	mux.HandleFunc("/data/air_pollution", respond(`{"list": [{"main": {"aqi": 2}, "components": {"pm2_5": 8.5}}]}`))
	mux.HandleFunc("/geo/direct", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "nowhere" {
			respond(`[]`)(w, r)
			return
		}
		respond(`[{"name": "Paris", "lat": 48.8566, "lon": 2.3522, "country": "FR", "state": "Ile-de-France"},
			{"name": "Paris", "lat": 33.66, "lon": -95.55, "country": "US", "state": "Texas"}]`)(w, r)
	})
	mux.HandleFunc("/geo/reverse", respond(`[{"name": "Lyon", "lat": 45.76, "lon": 4.83, "country": "FR"}]`))

	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) client(key string, m *metrics.Registry) *OpenWeather {
	return NewOpenWeather(u.Client(), key,
		WithBaseURLs(u.URL+"/data", u.URL+"/geo"),
		WithBackoff(fastBackoff),
		WithMetrics(m),
	)
}

func TestOpenWeatherSource(t *testing.T) {
	u := newUpstream(t)
	m := metrics.New()
	p := u.client("test-key", m)
	ctx := context.Background()

	cur, err := p.Current(ctx, 48.85, 2.35, weather.UnitImperial)
	require.NoError(t, err)
	assert.Equal(t, "Paris", cur.Name)
	require.NotNil(t, cur.Timezone)
	assert.Equal(t, 3600, *cur.Timezone)
	assert.Equal(t, 71.6, *cur.Main.Temp)

	fc, err := p.Forecast(ctx, 48.85, 2.35, weather.UnitImperial)
	require.NoError(t, err)
	assert.Len(t, fc.List, 2)

	air, err := p.AirQuality(ctx, 48.85, 2.35)
	require.NoError(t, err)
	require.Len(t, air.List, 1)
	assert.Equal(t, 8.5, air.List[0].Components["pm2_5"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("current", metrics.OutcomeOK)))
}

func TestOpenWeatherUnauthorizedIsNotRetried(t *testing.T) {
	u := newUpstream(t)
	p := u.client("wrong-key", nil)

	_, err := p.Current(context.Background(), 48.85, 2.35, weather.UnitImperial)
	assert.ErrorIs(t, err, weather.ErrUnauthorized)
	assert.Equal(t, int32(1), u.hits.Load())
}

func TestOpenWeatherRateLimited(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusTooManyRequests)
	p := u.client("test-key", nil)

	_, err := p.Search(context.Background(), "Paris", 1)
	assert.ErrorIs(t, err, weather.ErrRateLimited)
	assert.Equal(t, int32(1), u.hits.Load())
}

func TestOpenWeatherRetriesServerErrors(t *testing.T) {
	u := newUpstream(t)
	u.status.Store(http.StatusBadGateway)
	m := metrics.New()
	p := u.client("test-key", m)

	_, err := p.Forecast(context.Background(), 1, 1, weather.UnitMetric)
	assert.ErrorIs(t, err, errServerError)
	assert.Equal(t, int32(fastBackoff.MaxRetries+1), u.hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("forecast", metrics.OutcomeError)))
}

func TestOpenWeatherMissingKey(t *testing.T) {
	u := newUpstream(t)
	p := u.client("", nil)

	_, err := p.Current(context.Background(), 1, 1, weather.UnitMetric)
	assert.ErrorIs(t, err, errNoAPIKey)
	_, err = p.Search(context.Background(), "Paris", 1)
	assert.ErrorIs(t, err, errNoAPIKey)
	assert.Zero(t, u.hits.Load())
}

func TestOpenWeatherGeo(t *testing.T) {
	u := newUpstream(t)
	m := metrics.New()
	p := u.client("test-key", m)
	ctx := context.Background()

	found, err := p.Search(ctx, "paris", 5)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, weather.Coordinates{Lat: 48.8566, Lon: 2.3522, Name: "Paris", Country: "FR", State: "Ile-de-France"}, found[0])
	assert.Equal(t, "US", found[1].Country, "upstream rank order is kept")

	none, err := p.Search(ctx, "nowhere", 1)
	assert.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("geo_direct", metrics.OutcomeNotFound)))

	rev, err := p.Reverse(ctx, 45.76, 4.83)
	require.NoError(t, err)
	require.Len(t, rev, 1)
	assert.Equal(t, "Lyon", rev[0].Name)
}

func TestOpenWeatherHonoursCancellation(t *testing.T) {
	u := newUpstream(t)
	p := u.client("test-key", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Current(ctx, 48.85, 2.35, weather.UnitImperial)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, u.hits.Load())
}

func TestDoRequestWithResilienceConfig(t *testing.T) {
	build := func() (*http.Request, error) { return http.NewRequest(http.MethodGet, "http://invalid", nil) }
	cb := newBreaker("test")

	_, err := doRequestWithResilience(context.Background(), HTTPClientConfig{}, cb, build)
	assert.ErrorIs(t, err, errNoHTTPClient)

	_, err = doRequestWithResilience(context.Background(), HTTPClientConfig{Client: http.DefaultClient, Backoff: BackoffConfig{MaxRetries: -1}}, cb, build)
	assert.ErrorIs(t, err, errInvalidConfig)
}

func TestRainViewerManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"2.0","host":"https://tilecache.rainviewer.com","radar":{"past":[{"time":1780000000,"path":"/p"}],"nowcast":[]}}`))
	}))
	defer srv.Close()

	rv := NewRainViewer(srv.Client(), nil).WithURL(srv.URL)
	m, err := rv.Manifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1780000000}, m.Timestamps())
	assert.Equal(t, "https://tilecache.rainviewer.com", m.Host)
}

func TestCallerCancellationDoesNotTripBreaker(t *testing.T) {
	u := newUpstream(t)
	p := u.client("test-key", nil)
	u.delay.Store(int64(time.Second))

	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := p.Search(ctx, "paris", 1)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)
	}
	for i := 0; i < 8; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()
		_, err := p.Current(ctx, 48.85, 2.35, weather.UnitImperial)
		cancel()
		require.ErrorIs(t, err, context.Canceled)
	}

	u.delay.Store(0)
	got, err := p.Search(context.Background(), "paris", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	cur, err := p.Current(context.Background(), 48.85, 2.35, weather.UnitImperial)
	require.NoError(t, err)
	assert.Equal(t, "Paris", cur.Name)
}

func TestUpstreamFailuresStillTripBreaker(t *testing.T) {
	u := newUpstream(t)
	p := u.client("test-key", nil)
	u.status.Store(http.StatusBadGateway)

	for i := 0; i < 6; i++ {
		_, err := p.Search(context.Background(), "paris", 1)
		require.Error(t, err)
	}
	u.status.Store(0)
	_, err := p.Search(context.Background(), "paris", 1)
	assert.ErrorIs(t, err, errCircuitOpen)
}
