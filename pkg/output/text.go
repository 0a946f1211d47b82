package output

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
)

const barWidth = 30

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Extension returns the report file extension.
func (f *TextFormatter) Extension() string {
	return "txt"
}

// Format renders the report as text. Styling is dropped when w is not a
// terminal.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

type styles struct {
	title   lipgloss.Style
	heading lipgloss.Style
	dim     lipgloss.Style
	value   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("170")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
		value:   r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "kiropulse: %d requests, %d conversations, %d records in range, %d files, %d skipped\n",
		report.Overall.TotalRequests,
		report.Overall.TotalConversations,
		report.Summary.RecordsInRange,
		report.Summary.FilesParsed,
		report.Summary.FilesSkipped)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	s := newStyles(w)

	fmt.Fprintln(w, s.title.Render("=== Kiro Activity Analysis Report ==="))
	fmt.Fprintf(w, "Period: %s\n", report.Metadata.Period.String())
	fmt.Fprintln(w)

	writeResult(w, s, report.Overall)

	if set := report.Settings; !set.IsZero() {
		fmt.Fprintln(w, s.heading.Render("Model Settings"))
		writeMetric(w, s, "Configured Model", orNone(set.ConfiguredModel), "")
		writeMetric(w, s, "Agent Model", orNone(set.AgentModel), "")
		writeMetric(w, s, "Autonomy Mode", orNone(set.AutonomyMode), "")
		fmt.Fprintln(w)
	}

	for _, key := range sortedKeys(report.ByProject) {
		fmt.Fprintln(w, s.heading.Render("Project: "+key))
		writeSummary(w, s, report.ByProject[key])
		fmt.Fprintln(w)
	}
	for _, key := range sortedKeys(report.ByModel) {
		fmt.Fprintln(w, s.heading.Render("Model: "+key))
		writeSummary(w, s, report.ByModel[key])
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d files parsed, %d skipped, %d records in range, %d parse errors\n",
		report.Summary.FilesParsed,
		report.Summary.FilesSkipped,
		report.Summary.RecordsInRange,
		report.Summary.ParseErrors)

	for _, sk := range report.Diagnostics.Skipped {
		if sk.Error == "" && !f.opts.Verbose {
			continue
		}
		line := fmt.Sprintf("  skipped %s (%s)", sk.Path, sk.Reason)
		if sk.Error != "" && f.opts.Verbose {
			line += ": " + sk.Error
		}
		fmt.Fprintln(w, s.dim.Render(line))
	}

	if f.opts.Verbose {
		for _, file := range report.Diagnostics.Files {
			fmt.Fprintln(w, s.dim.Render(fmt.Sprintf("  parsed %s with %s: %d records, %d parse errors",
				file.Path, file.Handler, file.Records, file.ParseErrors)))
		}
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
	}

	return nil
}

func writeResult(w io.Writer, s styles, r metrics.Result) {
	fmt.Fprintln(w, s.heading.Render("Summary Statistics"))
	writeSummary(w, s, r)
	fmt.Fprintln(w)

	writeCounts(w, s, "Code Generation by Language", r.LinesByLanguage)
	writeCounts(w, s, "Tool Usage", r.ToolUsage)
	writeCounts(w, s, "Model Usage", r.ModelUsage)

	if len(r.DailyBreakdown) > 0 {
		fmt.Fprintln(w, s.heading.Render("Daily Activity Breakdown"))
		days := sortedCounts(r.DailyBreakdown)
		most := 0
		for _, d := range days {
			most = max(most, r.DailyBreakdown[d])
		}
		for _, d := range days {
			n := r.DailyBreakdown[d]
			bar := strings.Repeat("#", n*barWidth/most)
			fmt.Fprintf(w, "  %-12s %6d  %s\n", d, n, s.value.Render(bar))
		}
		fmt.Fprintln(w)
	}

	if len(r.PeakActivityPeriods) > 0 {
		fmt.Fprintln(w, s.heading.Render("Peak Activity Periods"))
		for i, p := range r.PeakActivityPeriods {
			fmt.Fprintf(w, "  %d. %s - %s (%d records)\n", i+1,
				p.Start.Format("2006-01-02 15:04"), p.End.Format("15:04"), p.Count)
		}
		fmt.Fprintln(w)
	}
}

func writeSummary(w io.Writer, s styles, r metrics.Result) {
	writeMetric(w, s, "Total Requests", itoa(r.TotalRequests), "count")
	writeMetric(w, s, "Total Conversations", itoa(r.TotalConversations), "count")
	writeMetric(w, s, "Average Response Time", ftoa(r.AvgResponseTimeSeconds), "seconds")
	writeMetric(w, s, "Fastest Response Time", ftoa(r.FastestResponseTimeSeconds), "seconds")
	writeMetric(w, s, "Slowest Response Time", ftoa(r.SlowestResponseTimeSeconds), "seconds")
	writeMetric(w, s, "Total Characters Processed", itoa(r.TotalCharactersProcessed), "characters")
	writeMetric(w, s, "Lines of Code Generated", itoa(r.LinesOfCodeGenerated), "lines")
	writeMetric(w, s, "Success Rate", fmt.Sprintf("%.1f", r.SuccessRatePercent), "percent")
}

func writeMetric(w io.Writer, s styles, name, value, unit string) {
	fmt.Fprintf(w, "  %-28s %s %s\n", name, s.value.Render(fmt.Sprintf("%12s", value)), s.dim.Render(unit))
}

// writeCounts prints a count table, largest first.
func writeCounts(w io.Writer, s styles, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := sortedCounts(counts)
	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})

	fmt.Fprintln(w, s.heading.Render(title))
	for _, k := range keys {
		fmt.Fprintf(w, "  %-28s %12d\n", k, counts[k])
	}
	fmt.Fprintln(w)
}

func orNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
