package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/i474232898/skypulse/internal/metrics"
	"github.com/i474232898/skypulse/internal/radar"
)

const rainViewerManifestURL = "https://api.rainviewer.com/public/weather-maps.json"

// RainViewer fetches the radar frame manifest. It needs no API key.
type RainViewer struct {
	url     string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	metrics *metrics.Registry
}

func NewRainViewer(client *http.Client, m *metrics.Registry) *RainViewer {
	return &RainViewer{
		url:     rainViewerManifestURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
		circuit: newBreaker("rainviewer"),
		metrics: m,
	}
}

// WithURL overrides the manifest location.
func (r *RainViewer) WithURL(u string) *RainViewer {
	r.url = u
	return r
}

func (r *RainViewer) Manifest(ctx context.Context) (radar.Manifest, error) {
	var m radar.Manifest
	if err := getJSON(ctx, r.httpCfg, r.circuit, r.url, &m); err != nil {
		r.metrics.Upstream("rainviewer", metrics.OutcomeError)
		return radar.Manifest{}, fmt.Errorf("rainviewer manifest: %w", err)
	}
	r.metrics.Upstream("rainviewer", metrics.OutcomeOK)
	return m, nil
}
