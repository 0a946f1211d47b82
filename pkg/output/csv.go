package output

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
)

// Row is one metric_name, value, unit line.
type Row struct {
	Name  string
	Value string
	Unit  string
}

// CSVFormatter writes one row per metric. Project and model groups follow
// the overall rows with a "project.<key>." or "model.<key>." prefix.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Extension returns the report file extension.
func (f *CSVFormatter) Extension() string {
	return "csv"
}

// Format renders the report as CSV.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"metric_name", "value", "unit"}); err != nil {
		return err
	}

	rows := MetricRows("", report.Overall, !f.opts.Quiet)
	if !f.opts.Quiet {
		for _, key := range sortedKeys(report.ByProject) {
			rows = append(rows, MetricRows("project."+key+".", report.ByProject[key], false)...)
		}
		for _, key := range sortedKeys(report.ByModel) {
			rows = append(rows, MetricRows("model."+key+".", report.ByModel[key], false)...)
		}
	}

	for _, r := range rows {
		if err := cw.Write([]string{r.Name, r.Value, r.Unit}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// MetricRows flattens a result. With detail set, per-language, per-tool
// and per-day counts are included.
func MetricRows(prefix string, r metrics.Result, detail bool) []Row {
	rows := []Row{
		{prefix + "total_requests", itoa(r.TotalRequests), "count"},
		{prefix + "total_conversations", itoa(r.TotalConversations), "count"},
		{prefix + "avg_response_time", ftoa(r.AvgResponseTimeSeconds), "seconds"},
		{prefix + "fastest_response_time", ftoa(r.FastestResponseTimeSeconds), "seconds"},
		{prefix + "slowest_response_time", ftoa(r.SlowestResponseTimeSeconds), "seconds"},
		{prefix + "total_characters_processed", itoa(r.TotalCharactersProcessed), "characters"},
		{prefix + "lines_of_code_generated", itoa(r.LinesOfCodeGenerated), "lines"},
		{prefix + "success_rate", ftoa(r.SuccessRatePercent), "percent"},
	}
	if !detail {
		return rows
	}

	for _, lang := range sortedCounts(r.LinesByLanguage) {
		rows = append(rows, Row{prefix + "lines_of_code_" + lang, itoa(r.LinesByLanguage[lang]), "lines"})
	}
	for _, tool := range sortedCounts(r.ToolUsage) {
		rows = append(rows, Row{prefix + "tool_usage_" + tool, itoa(r.ToolUsage[tool]), "count"})
	}
	for _, model := range sortedCounts(r.ModelUsage) {
		rows = append(rows, Row{prefix + "model_usage_" + model, itoa(r.ModelUsage[model]), "count"})
	}
	for _, day := range sortedCounts(r.DailyBreakdown) {
		rows = append(rows, Row{prefix + "daily_activity_" + day, itoa(r.DailyBreakdown[day]), "count"})
	}
	return rows
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func sortedKeys(m map[string]metrics.Result) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCounts(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
