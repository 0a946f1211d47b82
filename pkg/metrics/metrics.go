// Package metrics computes productivity metrics over a group of log records.
// Calculators are independent of each other and of record order.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

// ErrUnknownMetric is returned by Select for a name no calculator has.
var ErrUnknownMetric = errors.New("unknown metric")

// Calculator computes one named part of a Result.
type Calculator interface {
	// Name identifies the calculator in configuration.
	Name() string

	// Calculate is a pure function of records. Missing payload fields use
	// the calculator's documented default and never fail.
	Calculate(records []*record.LogRecord) Partial
}

// Partial is a calculator's output. Apply writes only the calculator's own
// fields.
type Partial interface {
	Apply(r *Result)
}

// PeakPeriod is a run of consecutive busy hours.
type PeakPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`
}

// Result is the full metric set for one group of records. Every field is
// always present; a group without relevant records reports zero values.
type Result struct {
	TotalRecords int `json:"total_records"`

	TotalRequests      int `json:"total_requests"`
	TotalConversations int `json:"total_conversations"`

	AvgResponseTimeSeconds     float64 `json:"avg_response_time_seconds"`
	FastestResponseTimeSeconds float64 `json:"fastest_response_time_seconds"`
	SlowestResponseTimeSeconds float64 `json:"slowest_response_time_seconds"`
	TimedResponses             int     `json:"timed_responses"`

	LinesOfCodeGenerated int            `json:"lines_of_code_generated"`
	LinesByLanguage      map[string]int `json:"lines_by_language"`
	SuccessRatePercent   float64        `json:"success_rate_percent"`
	GenerationAttempts   int            `json:"generation_attempts"`

	ToolUsage map[string]int `json:"tool_usage"`

	DailyBreakdown      map[string]int `json:"daily_breakdown"`
	PeakActivityPeriods []PeakPeriod   `json:"peak_activity_periods"`

	TotalCharactersProcessed int `json:"total_characters_processed"`

	ModelUsage map[string]int `json:"model_usage"`
}

// NewResult returns a Result with every field at its default.
func NewResult() Result {
	return Result{
		LinesByLanguage:     map[string]int{},
		ToolUsage:           map[string]int{},
		DailyBreakdown:      map[string]int{},
		PeakActivityPeriods: []PeakPeriod{},
		ModelUsage:          map[string]int{},
	}
}

// Compute runs every calculator over records.
func Compute(records []*record.LogRecord, calculators []Calculator) Result {
	r := NewResult()
	r.TotalRecords = len(records)
	for _, c := range calculators {
		c.Calculate(records).Apply(&r)
	}
	return r
}

// DefaultCalculators returns every built-in calculator.
func DefaultCalculators() []Calculator {
	return []Calculator{
		RequestCalculator{},
		ResponseTimeCalculator{},
		CodeGenerationCalculator{},
		ToolUsageCalculator{},
		ActivityCalculator{},
		CharacterCalculator{},
		ModelCalculator{},
	}
}

// Names lists the built-in calculator names.
func Names() []string {
	calcs := DefaultCalculators()
	names := make([]string, len(calcs))
	for i, c := range calcs {
		names[i] = c.Name()
	}
	return names
}

// Select returns the built-in calculators with the given names, in the
// order given. No names selects all of them.
func Select(names []string) ([]Calculator, error) {
	if len(names) == 0 {
		return DefaultCalculators(), nil
	}

	byName := make(map[string]Calculator)
	for _, c := range DefaultCalculators() {
		byName[c.Name()] = c
	}

	seen := make(map[string]bool)
	selected := make([]Calculator, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownMetric, name, Names())
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, c)
	}
	return selected, nil
}
