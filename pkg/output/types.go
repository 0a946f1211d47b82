// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/ccollicutt/kiropulse/pkg/analyzer"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/pipeline"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// Report is the complete analysis output.
type Report struct {
	Summary Summary `json:"summary"`

	// Overall covers every record in the analysis period.
	Overall metrics.Result `json:"overall"`

	// ByProject and ByModel are only filled when requested.
	ByProject map[string]metrics.Result `json:"by_project,omitempty"`
	ByModel   map[string]metrics.Result `json:"by_model,omitempty"`

	ModelUsage map[string]int    `json:"model_usage"`
	Settings   settings.Settings `json:"settings"`

	Diagnostics Diagnostics `json:"diagnostics"`
	Metadata    Metadata    `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	FilesParsed    int `json:"files_parsed"`
	FilesSkipped   int `json:"files_skipped"`
	RecordsSeen    int `json:"records_seen"`
	RecordsInRange int `json:"records_in_range"`
	ParseErrors    int `json:"parse_errors"`
	Projects       int `json:"projects"`
	Models         int `json:"models"`
}

// Diagnostics lists what happened to each discovered file.
type Diagnostics struct {
	Files   []pipeline.FileReport `json:"files"`
	Skipped []SkippedFile         `json:"skipped"`
}

// SkippedFile is a file that contributed no records.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	RunID      string              `json:"run_id"`
	LogDir     string              `json:"log_dir"`
	ConfigFile string              `json:"config_file,omitempty"`
	Period     *analyzer.TimeRange `json:"period,omitempty"`
	AnalyzedAt time.Time           `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration_ns"`
}

// ReportOptions controls what NewReport includes.
type ReportOptions struct {
	LogDir     string
	ConfigFile string
	ByProject  bool
	ByModel    bool
}

// NewReport creates a Report from a pipeline outcome.
func NewReport(outcome *pipeline.Outcome, opts ReportOptions) *Report {
	result := outcome.Result
	diag := outcome.Diagnostics

	report := &Report{
		Overall:    result.Overall,
		ModelUsage: result.ModelUsage,
		Settings:   result.Settings,
		Diagnostics: Diagnostics{
			Files:   diag.Files,
			Skipped: make([]SkippedFile, 0, len(diag.Skipped)+len(diag.DiscoveryWarnings)),
		},
		Metadata: Metadata{
			RunID:      result.Metadata.RunID,
			LogDir:     opts.LogDir,
			ConfigFile: opts.ConfigFile,
			Period:     result.Metadata.Period,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.Duration(),
		},
		Summary: Summary{
			FilesParsed:    len(diag.Files),
			FilesSkipped:   len(diag.Skipped) + len(diag.DiscoveryWarnings),
			RecordsSeen:    result.Metadata.RecordsSeen,
			RecordsInRange: result.Metadata.RecordsInRange,
			ParseErrors:    diag.TotalParseErrors(),
			Projects:       len(result.ByProject),
			Models:         len(result.ByModel),
		},
	}

	for _, group := range [][]pipeline.SkippedFile{diag.DiscoveryWarnings, diag.Skipped} {
		for _, s := range group {
			entry := SkippedFile{Path: s.Path, Reason: s.Reason}
			if s.Err != nil {
				entry.Error = s.Err.Error()
			}
			report.Diagnostics.Skipped = append(report.Diagnostics.Skipped, entry)
		}
	}

	if opts.ByProject {
		report.ByProject = result.ByProject
	}
	if opts.ByModel {
		report.ByModel = result.ByModel
	}

	return report
}

// HasWarnings returns true if any file was skipped or had bad lines.
func (r *Report) HasWarnings() bool {
	if r.Summary.ParseErrors > 0 {
		return true
	}
	for _, s := range r.Diagnostics.Skipped {
		if s.Error != "" {
			return true
		}
	}
	return false
}
