package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/kiropulse/pkg/analyzer"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/pipeline"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

var baseTime = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func createTestResult() metrics.Result {
	r := metrics.NewResult()
	r.TotalRecords = 12
	r.TotalRequests = 5
	r.TotalConversations = 2
	r.AvgResponseTimeSeconds = 2.5
	r.FastestResponseTimeSeconds = 1
	r.SlowestResponseTimeSeconds = 4
	r.LinesOfCodeGenerated = 120
	r.LinesByLanguage = map[string]int{"go": 100, "python": 20}
	r.SuccessRatePercent = 75
	r.ToolUsage = map[string]int{"readFile": 3, "fsWrite": 7}
	r.DailyBreakdown = map[string]int{"2025-01-14": 4, "2025-01-15": 8}
	r.PeakActivityPeriods = []metrics.PeakPeriod{{Start: baseTime, End: baseTime.Add(time.Hour), Count: 6}}
	r.ModelUsage = map[string]int{"sonnet": 9}
	return r
}

func createTestOutcome() *pipeline.Outcome {
	overall := createTestResult()
	project := metrics.NewResult()
	project.TotalRequests = 3

	return &pipeline.Outcome{
		Result: &analyzer.AnalysisResult{
			Overall:    overall,
			ByProject:  map[string]metrics.Result{"app-a": project, "unassigned": metrics.NewResult()},
			ByModel:    map[string]metrics.Result{"sonnet": project},
			ModelUsage: map[string]int{"sonnet": 9},
			Settings:   settings.Settings{ConfiguredModel: "sonnet", AutonomyMode: "Autopilot"},
			Metadata: analyzer.Metadata{
				RunID:          "run-1",
				Period:         &analyzer.TimeRange{Start: baseTime.AddDate(0, 0, -7), End: baseTime},
				RecordsSeen:    15,
				RecordsInRange: 12,
				StartTime:      baseTime,
				EndTime:        baseTime.Add(1500 * time.Millisecond),
			},
		},
		Diagnostics: pipeline.Diagnostics{
			Files: []pipeline.FileReport{
				{Path: "/logs/activity.jsonl", Handler: "json", Records: 15, ParseErrors: 2, Status: pipeline.StatusParsed},
			},
			Skipped: []pipeline.SkippedFile{
				{Path: "/logs/notes.txt", Reason: pipeline.ReasonUnrecognized, Err: errors.New("unrecognized log format")},
				{Path: "/logs/User/settings.json", Reason: pipeline.ReasonSettings},
			},
		},
	}
}

func createTestReport() *Report {
	return NewReport(createTestOutcome(), ReportOptions{LogDir: "/logs", ByProject: true, ByModel: true})
}

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
	if f.Extension() != "txt" {
		t.Errorf("Extension() = %q, want %q", f.Extension(), "txt")
	}
}

func TestTextFormatter_Format_Empty(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	report := &Report{Overall: metrics.NewResult()}

	var buf bytes.Buffer
	err := f.Format(context.Background(), report, &buf)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Kiro Activity Analysis Report") {
		t.Error("Output missing header")
	}
	if !strings.Contains(output, "Period: all time") {
		t.Error("Output missing period")
	}
	if strings.Contains(output, "Tool Usage") {
		t.Error("Empty report should not print a tool usage table")
	}
	if !strings.Contains(output, "0 files parsed") {
		t.Error("Output missing summary")
	}
}

func TestTextFormatter_Format_Full(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Period: 2025-01-08 10:00 to 2025-01-15 10:00",
		"Total Requests",
		"Success Rate",
		"75.0",
		"Code Generation by Language",
		"Tool Usage",
		"Daily Activity Breakdown",
		"Peak Activity Periods",
		"2025-01-15 10:00 - 11:00 (6 records)",
		"Model Settings",
		"Autopilot",
		"(not set)",
		"Project: app-a",
		"Project: unassigned",
		"Model: sonnet",
		"1 files parsed, 2 skipped, 12 records in range, 2 parse errors",
		"skipped /logs/notes.txt (unrecognized format)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q", want)
		}
	}

	// Intentional skips only show up in verbose mode.
	if strings.Contains(output, "settings.json") {
		t.Error("Non-verbose output should not list intentional skips")
	}

	// Largest count first.
	if strings.Index(output, "fsWrite") > strings.Index(output, "readFile") {
		t.Error("Tool usage should be sorted by count")
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 1 {
		t.Errorf("Quiet output has %d lines, want 1", len(lines))
	}
	if !strings.HasPrefix(output, "kiropulse: 5 requests") {
		t.Errorf("Quiet output = %q", output)
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"parsed /logs/activity.jsonl with json: 15 records, 2 parse errors",
		"skipped /logs/notes.txt (unrecognized format): unrecognized log format",
		"skipped /logs/User/settings.json (settings document)",
		"Run ID: run-1",
		"Duration: 1.5s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Verbose output missing %q", want)
		}
	}
}

func TestTextFormatter_NoColorForBuffers(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("Output to a non-terminal should not contain escape sequences")
	}
}

func TestNewReport_GroupsOnlyWhenRequested(t *testing.T) {
	report := NewReport(createTestOutcome(), ReportOptions{})
	if report.ByProject != nil || report.ByModel != nil {
		t.Error("groups should be omitted unless requested")
	}
	if report.Summary.Projects != 2 || report.Summary.Models != 1 {
		t.Errorf("Summary = %+v, want 2 projects and 1 model", report.Summary)
	}
	if report.Summary.FilesSkipped != 2 {
		t.Errorf("FilesSkipped = %d, want 2", report.Summary.FilesSkipped)
	}
	if report.Metadata.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", report.Metadata.Duration)
	}
	if !report.HasWarnings() {
		t.Error("HasWarnings() = false, want true")
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats() {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("NewFormatter(%q).Name() = %q", name, f.Name())
		}
	}

	if _, err := NewFormatter("xml", FormatOptions{}); err == nil {
		t.Error("NewFormatter(xml) expected error")
	}
}
