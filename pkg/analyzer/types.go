// Package analyzer filters parsed records to a time range, groups them by
// project and model, and runs the metric calculators over every group.
package analyzer

import (
	"sort"
	"time"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// TimeRange is a half-open window [Start, End). A zero bound is open.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// String renders the range for report headers.
func (r *TimeRange) String() string {
	if r == nil || (r.Start.IsZero() && r.End.IsZero()) {
		return "all time"
	}
	const layout = "2006-01-02 15:04"
	start, end := "beginning", "now"
	if !r.Start.IsZero() {
		start = r.Start.Format(layout)
	}
	if !r.End.IsZero() {
		end = r.End.Format(layout)
	}
	return start + " to " + end
}

// AnalysisResult is the outcome of one Analyze call.
type AnalysisResult struct {
	// Overall covers every in-range record.
	Overall metrics.Result `json:"overall"`

	// ByProject has one entry per project key. Every in-range record is in
	// exactly one project.
	ByProject map[string]metrics.Result `json:"by_project"`

	// ByModel has one entry per model key. Records naming no model are only
	// in Overall and their project.
	ByModel map[string]metrics.Result `json:"by_model"`

	// ModelUsage counts in-range records per model key.
	ModelUsage map[string]int `json:"model_usage"`

	Settings settings.Settings `json:"settings"`

	Metadata Metadata `json:"metadata"`
}

// Metadata describes an analysis run.
type Metadata struct {
	RunID          string     `json:"run_id"`
	Period         *TimeRange `json:"period,omitempty"`
	RecordsSeen    int        `json:"records_seen"`
	RecordsInRange int        `json:"records_in_range"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
}

// Duration returns how long the run took.
func (m Metadata) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// Projects returns the project keys in sorted order.
func (r *AnalysisResult) Projects() []string {
	return sortedKeys(r.ByProject)
}

// Models returns the model keys in sorted order.
func (r *AnalysisResult) Models() []string {
	return sortedKeys(r.ByModel)
}

func sortedKeys(m map[string]metrics.Result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
