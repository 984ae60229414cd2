package store

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/skypulse/internal/common"
	"github.com/i474232898/skypulse/internal/weather"
)

var (
	// ErrNotFound is returned when removing a saved location that is not in the list.
	ErrNotFound = errors.New("saved location not found")

	// ErrInvalidValue is returned when a write carries a value outside the allowed set.
	ErrInvalidValue = errors.New("invalid preference value")
)

// Storage keys. Values are stored as strings, the way a browser key-value store holds them.
const (
	KeyUnit                = "skypulse_unit"
	KeyTheme               = "skypulse_theme"
	KeyLanguage            = "skypulse_language"
	KeySavedLocations      = "skypulse_saved_locations"
	KeyLastRadarAd         = "skypulse_last_radar_ad"
	KeyRadarOpenExternally = "skypulse_radar_open_externally"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	DefaultLanguage = "en"

	// DefaultMaxSavedLocations bounds the saved list; the oldest entry is dropped first.
	DefaultMaxSavedLocations = 20
)

// Preferences is the typed view over the stored values.
type Preferences struct {
	Unit                  string    `json:"unit"`
	Theme                 string    `json:"theme"`
	Language              string    `json:"language"`
	SavedLocations        []string  `json:"savedLocations"`
	LastRadarInterstitial time.Time `json:"lastRadarInterstitial"`
	RadarOpenExternally   bool      `json:"radarOpenExternally"`
}

// Update is a partial write; nil fields are left unchanged.
type Update struct {
	Unit                *string `json:"unit" validate:"omitempty,oneof=celsius fahrenheit C F metric imperial"`
	Theme               *string `json:"theme" validate:"omitempty,oneof=light dark"`
	Language            *string `json:"language" validate:"omitempty,min=2,max=8"`
	RadarOpenExternally *bool   `json:"radarOpenExternally"`
}

// MemoryStore is a concurrency-safe in-memory key-value store for dashboard settings.
// Reads never fail: missing or malformed values fall back to defaults.
type MemoryStore struct {
	mu sync.RWMutex

	values   map[string]string
	maxSaved int
}

// NewMemoryStore creates an empty store. If maxSaved is <= 0 the default bound is used.
func NewMemoryStore(maxSaved int) *MemoryStore {
	if maxSaved <= 0 {
		maxSaved = DefaultMaxSavedLocations
	}
	return &MemoryStore{values: make(map[string]string), maxSaved: maxSaved}
}

// Raw returns the stored string for key.
func (s *MemoryStore) Raw(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// SetRaw writes key without validation. Typed readers tolerate whatever is stored.
func (s *MemoryStore) SetRaw(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Unit() weather.Unit {
	raw, _ := s.Raw(KeyUnit)
	unit, err := weather.ParseUnit(raw)
	if err != nil {
		return weather.UnitMetric
	}
	return unit
}

func (s *MemoryStore) SetUnit(unit weather.Unit) {
	s.SetRaw(KeyUnit, unitName(unit))
}

func (s *MemoryStore) Theme() string {
	raw, _ := s.Raw(KeyTheme)
	if raw == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}

func (s *MemoryStore) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return ErrInvalidValue
	}
	s.SetRaw(KeyTheme, theme)
	return nil
}

func (s *MemoryStore) Language() string {
	raw, _ := s.Raw(KeyLanguage)
	if raw = strings.TrimSpace(raw); raw == "" {
		return DefaultLanguage
	}
	return raw
}

func (s *MemoryStore) SetLanguage(lang string) {
	s.SetRaw(KeyLanguage, strings.TrimSpace(lang))
}

// SavedLocations returns the list oldest first.
func (s *MemoryStore) SavedLocations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.savedLocked()
}

func (s *MemoryStore) savedLocked() []string {
	var list []string
	if err := json.Unmarshal([]byte(s.values[KeySavedLocations]), &list); err != nil || list == nil {
		return []string{}
	}
	return list
}

// AddSavedLocation appends location unless an entry with the same case-insensitive
// name exists, then enforces the bound.
func (s *MemoryStore) AddSavedLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return ErrInvalidValue
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.savedLocked()
	key := common.NormalizeKey(location)
	for _, existing := range list {
		if common.NormalizeKey(existing) == key {
			return nil
		}
	}
	list = append(list, location)
	if over := len(list) - s.maxSaved; over > 0 {
		list = list[over:]
	}
	return s.putSavedLocked(list)
}

func (s *MemoryStore) RemoveSavedLocation(location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.savedLocked()
	key := common.NormalizeKey(location)
	for i, existing := range list {
		if common.NormalizeKey(existing) == key {
			return s.putSavedLocked(append(list[:i], list[i+1:]...))
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) putSavedLocked(list []string) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.values[KeySavedLocations] = string(data)
	return nil
}

// LastRadarInterstitial is stored as unix milliseconds; zero means never shown.
func (s *MemoryStore) LastRadarInterstitial() time.Time {
	raw, _ := s.Raw(KeyLastRadarAd)
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func (s *MemoryStore) MarkRadarInterstitial(t time.Time) {
	s.SetRaw(KeyLastRadarAd, strconv.FormatInt(t.UnixMilli(), 10))
}

func (s *MemoryStore) RadarOpenExternally() bool {
	raw, _ := s.Raw(KeyRadarOpenExternally)
	return raw == "true"
}

func (s *MemoryStore) SetRadarOpenExternally(v bool) {
	s.SetRaw(KeyRadarOpenExternally, strconv.FormatBool(v))
}

// Snapshot returns every preference with defaults applied.
func (s *MemoryStore) Snapshot() Preferences {
	return Preferences{
		Unit:                  unitName(s.Unit()),
		Theme:                 s.Theme(),
		Language:              s.Language(),
		SavedLocations:        s.SavedLocations(),
		LastRadarInterstitial: s.LastRadarInterstitial(),
		RadarOpenExternally:   s.RadarOpenExternally(),
	}
}

// Apply writes the non-nil fields of u and returns the resulting snapshot.
func (s *MemoryStore) Apply(u Update) (Preferences, error) {
	if u.Unit != nil {
		unit, err := weather.ParseUnit(*u.Unit)
		if err != nil {
			return Preferences{}, ErrInvalidValue
		}
		s.SetUnit(unit)
	}
	if u.Theme != nil {
		if err := s.SetTheme(*u.Theme); err != nil {
			return Preferences{}, err
		}
	}
	if u.Language != nil {
		s.SetLanguage(*u.Language)
	}
	if u.RadarOpenExternally != nil {
		s.SetRadarOpenExternally(*u.RadarOpenExternally)
	}
	return s.Snapshot(), nil
}

func unitName(u weather.Unit) string {
	if u == weather.UnitImperial {
		return "fahrenheit"
	}
	return "celsius"
}
