package radar

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skypulse/internal/weather"
)

func TestFramesLastHour(t *testing.T) {
	now := time.Unix(1_780_000_000, 0)
	at := func(minutesAgo int) int64 { return now.Unix() - int64(minutesAgo*60) }

	ts := []int64{
		at(90), at(70), // too old
		at(55), at(50), at(45), at(40), at(38), at(30), at(20), at(10), at(0),
		at(45),  // duplicate
		at(-10), // future
	}
	got := FramesLastHour(ts, now)
	assert.Equal(t, []int64{at(55), at(45), at(30), at(20), at(10), at(0)}, got)
}

func TestFramesLastHourCapsAtSix(t *testing.T) {
	now := time.Unix(1_780_000_000, 0)
	var ts []int64
	for m := 60; m >= 0; m -= 10 {
		ts = append(ts, now.Unix()-int64(m*60))
	}
	got := FramesLastHour(ts, now)
	require.Len(t, got, 6)
	assert.Equal(t, now.Unix()-3600, got[0])
}

func TestFramesLastHourEmpty(t *testing.T) {
	assert.Empty(t, FramesLastHour(nil, time.Now()))
}

func TestTileURL(t *testing.T) {
	assert.Equal(t,
		"https://tilecache.rainviewer.com/v2/radar/1780000000/256/5/12/9/1/1.png",
		TileURL(1780000000, 5, 12, 9, 1, 1))
}

func TestExternalURL(t *testing.T) {
	assert.Equal(t, "https://www.windy.com/?40.71,-74.01,4", ExternalURL(nil))
	assert.Equal(t, "https://www.windy.com/?48.86,2.35,8", ExternalURL(&weather.Coordinates{Lat: 48.8566, Lon: 2.3522}))
	assert.Equal(t, "https://www.windy.com/?51.00,0.00,8", ExternalURL(&weather.Coordinates{Lat: 51, Lon: 0}))
	assert.Equal(t, "https://www.windy.com/?40.71,-74.01,4", ExternalURL(&weather.Coordinates{Lat: 120, Lon: 0}))
	assert.Equal(t, "https://www.windy.com/?40.71,-74.01,4", ExternalURL(&weather.Coordinates{Lat: math.NaN(), Lon: 0}))
}

func TestManifest(t *testing.T) {
	var m Manifest
	raw := `{"version":"2.0","generated":1780000100,"host":"https://tilecache.rainviewer.com",
		"radar":{"past":[{"time":1780000000,"path":"/v2/radar/1780000000"},{"time":1779999400,"path":"/v2/radar/1779999400"}],
		"nowcast":[{"time":1780000600,"path":"/v2/radar/nowcast_1"}]}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, []int64{1780000000, 1779999400, 1780000600}, m.Timestamps())
	latest, ok := m.Latest()
	assert.True(t, ok)
	assert.Equal(t, int64(1780000600), latest)

	_, ok = Manifest{}.Latest()
	assert.False(t, ok)
}
