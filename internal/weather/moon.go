package weather

import (
	"math"
	"time"
)

const synodicMonthDays = 29.530588853

// referenceNewMoon is the new moon of 2000-01-06 18:14 UTC.
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// MoonIllumination returns the illuminated fraction of the moon at t as 0-100.
func MoonIllumination(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24
	phase := math.Mod(days, synodicMonthDays) / synodicMonthDays
	if phase < 0 {
		phase++
	}
	illum := (1 - math.Cos(2*math.Pi*phase)) / 2 * 100
	return math.Round(illum*10) / 10
}
