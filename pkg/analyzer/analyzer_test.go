package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

var base = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func at(hours int, kind string, payload record.Payload) *record.LogRecord {
	return &record.LogRecord{Timestamp: base.Add(time.Duration(hours) * time.Hour), Kind: kind, Payload: payload}
}

func sampleRecords() []*record.LogRecord {
	return []*record.LogRecord{
		at(0, record.KindRequest, record.Payload{"workspace_path": "/home/dev/app-a", "model": "sonnet"}),
		at(1, record.KindResponse, record.Payload{"workspace_path": "/home/dev/app-a", "model": "sonnet", "response_time": 2.0}),
		at(2, record.KindRequest, record.Payload{"project_name": "App-B"}),
		at(3, record.KindRequest, record.Payload{"cwd": "/srv/app-b", "model_id": "opus"}),
		at(4, "info", nil),
		at(30, record.KindRequest, record.Payload{"workspace_path": "/home/dev/app-a"}),
	}
}

func TestAnalyze_GroupsByProjectAndModel(t *testing.T) {
	result, err := NewAnalyzer().Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, []string{"app-a", "app-b", record.UnassignedProject}, result.Projects())
	assert.Equal(t, 3, result.ByProject["app-a"].TotalRecords)
	assert.Equal(t, 2, result.ByProject["app-b"].TotalRecords)
	assert.Equal(t, 1, result.ByProject[record.UnassignedProject].TotalRecords)

	assert.Equal(t, []string{"opus", "sonnet"}, result.Models())
	assert.Equal(t, map[string]int{"sonnet": 2, "opus": 1}, result.ModelUsage)
	assert.Equal(t, 1, result.ByModel["sonnet"].TotalRequests)

	assert.Equal(t, 4, result.Overall.TotalRequests)
	assert.Equal(t, 6, result.Metadata.RecordsSeen)
	assert.Equal(t, 6, result.Metadata.RecordsInRange)
	assert.NotEmpty(t, result.Metadata.RunID)
}

func TestAnalyze_ProjectCountsSumToTotal(t *testing.T) {
	records := sampleRecords()
	result, err := NewAnalyzer(WithTimeRange(base, base.Add(24*time.Hour))).Analyze(context.Background(), records)
	require.NoError(t, err)

	sum := 0
	for _, r := range result.ByProject {
		sum += r.TotalRecords
	}
	assert.Equal(t, result.Metadata.RecordsInRange, sum)
	assert.Equal(t, result.Overall.TotalRecords, sum)
	assert.Equal(t, 5, sum)
}

func TestAnalyze_TimeRangeIsHalfOpen(t *testing.T) {
	records := sampleRecords()

	result, err := NewAnalyzer(WithTimeRange(base.Add(time.Hour), base.Add(3*time.Hour))).
		Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metadata.RecordsInRange)
	assert.Equal(t, 6, result.Metadata.RecordsSeen)
}

func TestAnalyze_RequestsAreAdditiveAcrossWindows(t *testing.T) {
	records := sampleRecords()
	split := base.Add(2 * time.Hour)
	end := base.Add(48 * time.Hour)

	count := func(start, end time.Time) int {
		t.Helper()
		result, err := NewAnalyzer(WithTimeRange(start, end)).Analyze(context.Background(), records)
		require.NoError(t, err)
		return result.Overall.TotalRequests
	}

	assert.Equal(t, count(base, end), count(base, split)+count(split, end))
}

func TestAnalyze_Idempotent(t *testing.T) {
	records := sampleRecords()
	a := NewAnalyzer(WithConcurrency(4))

	first, err := a.Analyze(context.Background(), records)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, first.Overall, second.Overall)
	assert.Equal(t, first.ByProject, second.ByProject)
	assert.Equal(t, first.ByModel, second.ByModel)
	assert.NotEqual(t, first.Metadata.RunID, second.Metadata.RunID)
}

func TestAnalyze_ConcurrencyDoesNotChangeResults(t *testing.T) {
	records := sampleRecords()

	serial, err := NewAnalyzer(WithConcurrency(1)).Analyze(context.Background(), records)
	require.NoError(t, err)
	parallel, err := NewAnalyzer(WithConcurrency(8)).Analyze(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, serial.ByProject, parallel.ByProject)
	assert.Equal(t, serial.ByModel, parallel.ByModel)
}

func TestAnalyze_SelectedCalculators(t *testing.T) {
	calcs, err := metrics.Select([]string{"requests"})
	require.NoError(t, err)

	result, err := NewAnalyzer(WithCalculators(calcs)).Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Overall.TotalRequests)
	assert.Zero(t, result.Overall.TimedResponses)
	assert.Empty(t, result.Overall.DailyBreakdown)
	// ModelUsage is counted by the analyzer, not the models calculator.
	assert.Equal(t, 2, result.ModelUsage["sonnet"])
}

func TestAnalyze_SettingsAreCarried(t *testing.T) {
	s := settings.Settings{ConfiguredModel: "sonnet", AutonomyMode: "Autopilot"}
	result, err := NewAnalyzer(WithSettings(s)).Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, s, result.Settings)
}

func TestAnalyze_Empty(t *testing.T) {
	result, err := NewAnalyzer().Analyze(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, result.Overall.TotalRecords)
	assert.Empty(t, result.ByProject)
	assert.Empty(t, result.ByModel)
	assert.NotNil(t, result.Overall.ToolUsage)
}

func TestAnalyze_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewAnalyzer().Analyze(ctx, sampleRecords())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestAnalyze_Metadata(t *testing.T) {
	clock := []time.Time{base, base.Add(time.Second)}
	now := func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	}

	result, err := NewAnalyzer(WithClock(now)).Analyze(context.Background(), sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, time.Second, result.Metadata.Duration())
	assert.Nil(t, result.Metadata.Period)
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name string
		r    *TimeRange
		ts   time.Time
		want bool
	}{
		{"nil range", nil, base, true},
		{"inside", &TimeRange{Start: base, End: base.Add(time.Hour)}, base.Add(time.Minute), true},
		{"start inclusive", &TimeRange{Start: base, End: base.Add(time.Hour)}, base, true},
		{"end exclusive", &TimeRange{Start: base, End: base.Add(time.Hour)}, base.Add(time.Hour), false},
		{"before", &TimeRange{Start: base}, base.Add(-time.Second), false},
		{"open end", &TimeRange{Start: base}, base.Add(1000 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.ts))
		})
	}

	assert.Equal(t, "all time", (*TimeRange)(nil).String())
	assert.Equal(t, "2025-01-15 09:00 to now", (&TimeRange{Start: base}).String())
}
