package metrics

import (
	"time"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

// PeakDensityMultiplier is how far above the mean hourly record count an
// hour must be to count as a peak.
const PeakDensityMultiplier = 1.5

// PeakWindow is the width of the windows compared for peak detection.
const PeakWindow = time.Hour

// DayLayout formats DailyBreakdown keys.
const DayLayout = "2006-01-02"

// ActivityCalculator counts records per calendar day, using each
// timestamp's own zone, and finds peak periods.
//
// The span from the first record's hour to the last record's hour is cut
// into one-hour windows (UTC-aligned). A window is busy when its count is
// greater than PeakDensityMultiplier times the mean count per window across
// the span. Consecutive busy windows merge into one PeakPeriod.
type ActivityCalculator struct{}

// ActivityStats is the ActivityCalculator partial.
type ActivityStats struct {
	Daily map[string]int
	Peaks []PeakPeriod
}

func (ActivityCalculator) Name() string { return "activity" }

func (ActivityCalculator) Calculate(records []*record.LogRecord) Partial {
	stats := ActivityStats{Daily: map[string]int{}, Peaks: []PeakPeriod{}}
	if len(records) == 0 {
		return stats
	}

	hourly := make(map[int64]int)
	var first, last int64
	for i, r := range records {
		stats.Daily[r.Timestamp.Format(DayLayout)]++

		h := r.Timestamp.UTC().Truncate(PeakWindow).Unix()
		hourly[h]++
		if i == 0 || h < first {
			first = h
		}
		if i == 0 || h > last {
			last = h
		}
	}

	step := int64(PeakWindow / time.Second)
	windows := (last-first)/step + 1
	threshold := PeakDensityMultiplier * float64(len(records)) / float64(windows)

	var current *PeakPeriod
	for h := first; h <= last; h += step {
		count := hourly[h]
		if float64(count) <= threshold {
			current = nil
			continue
		}
		if current == nil {
			stats.Peaks = append(stats.Peaks, PeakPeriod{Start: time.Unix(h, 0).UTC()})
			current = &stats.Peaks[len(stats.Peaks)-1]
		}
		current.End = time.Unix(h+step, 0).UTC()
		current.Count += count
	}

	return stats
}

func (s ActivityStats) Apply(r *Result) {
	r.DailyBreakdown = s.Daily
	r.PeakActivityPeriods = s.Peaks
}
