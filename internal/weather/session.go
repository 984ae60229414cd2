package weather

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/skypulse/internal/logger"
	"github.com/i474232898/skypulse/internal/metrics"
)

// Snapshot is one successfully composed cycle together with its derived keys.
type Snapshot struct {
	Data       *Data   `json:"weather"`
	Derived    Derived `json:"derived"`
	Generation uint64  `json:"generation"`
	CycleID    string  `json:"cycleId"`
}

// Session holds the single active dashboard. Every Refresh starts a new generation and
// cancels the one in flight; a result whose generation is no longer current is dropped.
type Session struct {
	composer *Composer
	metrics  *metrics.Registry

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	coords     *Coordinates
	unit       Unit
	label      string
	latest     *Snapshot
	lastErr    error
}

// NewSession returns an empty session; m may be nil.
func NewSession(composer *Composer, m *metrics.Registry) *Session {
	return &Session{composer: composer, metrics: m, unit: UnitMetric}
}

// Refresh composes coords in unit. Moving to different coordinates clears any label
// patch from the previous location.
func (s *Session) Refresh(ctx context.Context, coords Coordinates, unit Unit) (*Snapshot, error) {
	if err := ValidateCoordinates(coords.Lat, coords.Lon); err != nil {
		return nil, err
	}
	return s.run(ctx, coords, unit, false)
}

// Refetch re-runs the last coordinates and unit, keeping the label patch.
func (s *Session) Refetch(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	if s.coords == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	coords, unit := *s.coords, s.unit
	s.mu.Unlock()
	return s.run(ctx, coords, unit, true)
}

// SetUnit switches the unit and refetches when a location is active.
func (s *Session) SetUnit(ctx context.Context, unit Unit) (*Snapshot, error) {
	s.mu.Lock()
	s.unit = unit
	active := s.coords != nil
	s.mu.Unlock()
	if !active {
		return nil, ErrNoSession
	}
	return s.Refetch(ctx)
}

func (s *Session) run(ctx context.Context, coords Coordinates, unit Unit, keepLabel bool) (*Snapshot, error) {
	log := logger.GetLogger()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if !keepLabel && (s.coords == nil || s.coords.Lat != coords.Lat || s.coords.Lon != coords.Lon) {
		s.label = ""
	}
	s.coords = &coords
	s.unit = unit
	s.mu.Unlock()

	cycleID := uuid.NewString()
	log.Debugw("Starting fetch cycle", "cycleID", cycleID, "generation", gen, "lat", coords.Lat, "lon", coords.Lon, "unit", unit)

	data, err := s.composer.Compose(cycleCtx, coords, unit)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.metrics.Composition(metrics.OutcomeDropped, 0)
		log.Infow("Dropping superseded fetch cycle", "cycleID", cycleID, "generation", gen, "current", s.generation)
		return nil, ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.lastErr = err
		return nil, err
	}
	if s.label != "" {
		data.Current.Location = s.label
	}

	snap := &Snapshot{
		Data:       data,
		Derived:    s.composer.Derive(data),
		Generation: gen,
		CycleID:    cycleID,
	}
	s.latest = snap
	s.lastErr = nil
	return snap, nil
}

// SetLocationLabel patches the display label without refetching.
func (s *Session) SetLocationLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = label
	if s.latest == nil {
		return
	}
	data := *s.latest.Data
	data.Current.Location = label
	patched := *s.latest
	patched.Data = &data
	s.latest = &patched
}

// Snapshot returns the latest good cycle (nil before the first) and the error of the
// most recent cycle, if it failed.
func (s *Session) Snapshot() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.lastErr
}

// Active reports the coordinates and unit of the active location.
func (s *Session) Active() (*Coordinates, Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.coords == nil {
		return nil, s.unit
	}
	c := *s.coords
	return &c, s.unit
}

// RadarKeys returns the radar banner keys for the latest cycle, or the loading key.
func (s *Session) RadarKeys() []string {
	snap, _ := s.Snapshot()
	if snap == nil {
		return s.composer.insights.RadarKeys(nil, UnitMetric)
	}
	return snap.Derived.RadarKeys
}
