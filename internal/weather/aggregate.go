package weather

import (
	"math"
	"sort"
	"time"
)

const (
	defaultHourlySlots = 48
	defaultDailyDays   = 5

	forecastStep = 3 * time.Hour
	localNoon    = 12 * 3600
)

// Aggregator regroups the 3-hour forecast list into hourly tiles and daily buckets.
type Aggregator struct {
	MaxHours int
	MaxDays  int
}

// NewAggregator returns an aggregator producing up to 48 hours and 5 days.
func NewAggregator() Aggregator {
	return Aggregator{MaxHours: defaultHourlySlots, MaxDays: defaultDailyDays}
}

// Hourly builds one item per local hour starting at the hour containing now. Each item
// copies the most recent forecast slot at or before its target hour; values are never
// interpolated. Item 0 carries the current observation's temperature, condition,
// precipitation and clouds. Returns nil when the forecast list is empty.
func (a Aggregator) Hourly(current Slot, list []Slot, tzOffsetSeconds int, now time.Time) []HourlyItem {
	if len(list) == 0 {
		return nil
	}
	sorted := sortedByTime(list)
	sun := current.SunTimes()
	zone := time.FixedZone("", tzOffsetSeconds)
	coverageEnd := sorted[len(sorted)-1].Timestamp.Add(forecastStep)
	base := localHourStart(now, tzOffsetSeconds)

	items := make([]HourlyItem, 0, a.MaxHours)
	for i := 0; i < a.MaxHours; i++ {
		target := base.Add(time.Duration(i) * time.Hour)
		if !target.Before(coverageEnd) {
			break
		}

		slot, ok := nearestPast(sorted, target)
		if !ok {
			slot = current
		}
		slot.Timestamp = target
		slot.Sunrise = sun.Sunrise
		slot.Sunset = sun.Sunset

		if i == 0 {
			slot.Temperature = current.Temperature
			slot.Condition = current.Condition
			slot.ConditionCode = current.ConditionCode
			slot.Rain1h = current.Rain1h
			slot.Rain3h = current.Rain3h
			slot.Clouds = current.Clouds
		}

		items = append(items, HourlyItem{
			Slot:  slot,
			Label: target.In(zone).Format("15:04"),
			Dt:    target.Unix(),
		})
	}
	return items
}

// Daily groups the forecast list by UTC calendar day. Each bucket gets the min/max of
// its temperatures and a representative slot nearest local noon, used for the icon.
// The bucket of the observation's UTC day also folds in the current temperature; an
// observation without a timestamp folds into the first bucket. Returns nil for an empty list.
func (a Aggregator) Daily(current Slot, list []Slot, tzOffsetSeconds int) []ForecastItem {
	if len(list) == 0 {
		return nil
	}
	sorted := sortedByTime(list)
	sun := current.SunTimes()

	var (
		keys   []string
		groups = make(map[string][]Slot)
	)
	for _, s := range sorted {
		k := s.Timestamp.UTC().Format("2006-01-02")
		if _, exists := groups[k]; !exists {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], s)
	}

	today := ""
	if !current.Timestamp.IsZero() {
		today = current.Timestamp.UTC().Format("2006-01-02")
	}

	days := make([]ForecastItem, 0, a.MaxDays)
	for i, k := range keys {
		if len(days) >= a.MaxDays {
			break
		}
		slots := groups[k]

		temps := make([]float64, 0, len(slots)+1)
		for _, s := range slots {
			if s.Temperature != nil {
				temps = append(temps, *s.Temperature)
			}
		}
		if current.Temperature != nil && (k == today || (today == "" && i == 0)) {
			temps = append(temps, *current.Temperature)
		}
		lo, hi := minMax(temps)

		rep := representative(slots, tzOffsetSeconds)
		rep.Sunrise = sun.Sunrise
		rep.Sunset = sun.Sunset

		days = append(days, ForecastItem{Date: k, Min: lo, Max: hi, Slot: rep})
	}
	return days
}

// representative picks the slot closest to local noon; ties keep the earlier slot.
func representative(slots []Slot, tzOffsetSeconds int) Slot {
	best := slots[0]
	bestDist := noonDistance(best, tzOffsetSeconds)
	for _, s := range slots[1:] {
		if d := noonDistance(s, tzOffsetSeconds); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

func noonDistance(s Slot, tzOffsetSeconds int) int {
	d := SecondsSinceLocalMidnight(s.Timestamp, tzOffsetSeconds) - localNoon
	if d < 0 {
		return -d
	}
	return d
}

// nearestPast returns the latest slot whose timestamp is <= target.
func nearestPast(sorted []Slot, target time.Time) (Slot, bool) {
	i := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Timestamp.After(target)
	})
	if i == 0 {
		return Slot{}, false
	}
	return sorted[i-1], true
}

// localHourStart floors now to the start of its local hour, expressed in UTC.
func localHourStart(now time.Time, tzOffsetSeconds int) time.Time {
	local := now.Unix() + int64(tzOffsetSeconds)
	rem := local % 3600
	if rem < 0 {
		rem += 3600
	}
	return time.Unix(local-rem-int64(tzOffsetSeconds), 0).UTC()
}

func sortedByTime(list []Slot) []Slot {
	out := make([]Slot, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
