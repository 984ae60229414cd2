package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMoonIllumination(t *testing.T) {
	assert.Equal(t, 0.0, MoonIllumination(referenceNewMoon))

	half := time.Duration(synodicMonthDays / 2 * 24 * float64(time.Hour))
	assert.Equal(t, 100.0, MoonIllumination(referenceNewMoon.Add(half)))

	quarter := time.Duration(synodicMonthDays / 4 * 24 * float64(time.Hour))
	assert.InDelta(t, 50.0, MoonIllumination(referenceNewMoon.Add(quarter)), 0.1)

	// Before the reference the phase still wraps into [0, 1).
	before := MoonIllumination(referenceNewMoon.Add(-half))
	assert.InDelta(t, 100.0, before, 0.1)
}
