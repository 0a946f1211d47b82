package metrics

import (
	"github.com/ccollicutt/kiropulse/pkg/record"
)

var responseTimeFields = []string{"response_time_seconds", "response_time"}

// ResponseTimeCalculator reports average, fastest and slowest response
// times in seconds over records that carry a non-negative response time.
// All three are 0 when no record does.
type ResponseTimeCalculator struct{}

// ResponseTimeStats is the ResponseTimeCalculator partial.
type ResponseTimeStats struct {
	Avg, Min, Max float64
	Count         int
}

func (ResponseTimeCalculator) Name() string { return "response_time" }

func (ResponseTimeCalculator) Calculate(records []*record.LogRecord) Partial {
	var stats ResponseTimeStats
	var sum float64

	for _, r := range records {
		v, ok := responseTime(r.Payload)
		if !ok {
			continue
		}
		if stats.Count == 0 || v < stats.Min {
			stats.Min = v
		}
		if stats.Count == 0 || v > stats.Max {
			stats.Max = v
		}
		sum += v
		stats.Count++
	}

	if stats.Count > 0 {
		stats.Avg = sum / float64(stats.Count)
	}
	return stats
}

func responseTime(p record.Payload) (float64, bool) {
	for _, field := range responseTimeFields {
		if v, ok := p.Float(field); ok && v >= 0 {
			return v, true
		}
	}
	return 0, false
}

func (s ResponseTimeStats) Apply(r *Result) {
	r.AvgResponseTimeSeconds = s.Avg
	r.FastestResponseTimeSeconds = s.Min
	r.SlowestResponseTimeSeconds = s.Max
	r.TimedResponses = s.Count
}
