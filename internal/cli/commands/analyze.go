package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/ccollicutt/kiropulse/pkg/config"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/output"
	"github.com/ccollicutt/kiropulse/pkg/pipeline"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// dateLayout is the day-precision form accepted by --start and --end.
const dateLayout = "2006-01-02"

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigPath   string
	SettingsPath string
	Start        string
	End          string
	Days         int
	AllTime      bool
	Output       string
	ByProject    bool
	ByModel      bool
	Save         bool
	ReportDir    string
	Workers      int
	Strict       bool
	Verbose      bool
	Quiet        bool

	// now is the reference time for relative ranges; time.Now when nil.
	now func() time.Time
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [log-dir]",
		Short: "Compute activity metrics from Kiro logs",
		Long: `Discover the log files under a directory, parse them, and report
productivity metrics: requests, conversations, response times, generated
code, tool usage, daily activity and peak periods.

The log directory defaults to log_dir from the config file, which in turn
defaults to the Kiro application folder. Without --start, --end, --days or
--all-time the last default_date_range_days days are analyzed.

Dates are YYYY-MM-DD (interpreted in the configured timezone; --end includes
the whole day) or RFC 3339 timestamps.

Exit codes:
  0 - Analysis completed
  1 - Analysis completed with skipped files or parse errors (--strict only)
  2 - Configuration or runtime error`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ~/.kiropulse/config.yaml)")
	cmd.Flags().StringVar(&opts.SettingsPath, "settings", "", "Kiro settings document (default from config)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "Start of the analysis window (inclusive)")
	cmd.Flags().StringVar(&opts.End, "end", "", "End of the analysis window")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "Analyze the last N days")
	cmd.Flags().BoolVar(&opts.AllTime, "all-time", false, "Analyze every log regardless of date")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|csv)")
	cmd.Flags().BoolVar(&opts.ByProject, "by-project", false, "Include per-project metrics")
	cmd.Flags().BoolVar(&opts.ByModel, "by-model", false, "Include per-model metrics")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Also write the report to output_directory")
	cmd.Flags().StringVar(&opts.ReportDir, "report-dir", "", "Write the report file to this directory (implies --save)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Files parsed in parallel (default from config, else one per CPU)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Exit 1 when files were skipped or lines failed to parse")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show per-file details and debug logging")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ExitCode = 0
	ctx := commandContext(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, opts.Quiet)

	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logDir := cfg.LogDir
	if len(args) == 1 {
		logDir = args[0]
	}

	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	start, end, err := resolveTimeRange(opts, cfg, now())
	if err != nil {
		return err
	}

	calculators, err := metrics.Select(cfg.EnabledMetrics)
	if err != nil {
		return fmt.Errorf("selecting metrics: %w", err)
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	settingsPath := cfg.SettingsPath
	if opts.SettingsPath != "" {
		settingsPath = opts.SettingsPath
	}
	modelSettings, err := settings.Load(settingsPath)
	if err != nil {
		logger.Warn("ignoring settings document", "path", settingsPath, "error", err)
	}

	workers := cfg.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	outcome, err := pipeline.Run(ctx, pipeline.Options{
		Root:        logDir,
		Start:       start,
		End:         end,
		AllTime:     opts.AllTime,
		Registry:    newRegistry(cfg, logger),
		Calculators: calculators,
		Settings:    modelSettings,
		Workers:     workers,
		Logger:      logger,
		Clock:       now,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(outcome, output.ReportOptions{
		LogDir:     logDir,
		ConfigFile: opts.ConfigPath,
		ByProject:  opts.ByProject,
		ByModel:    opts.ByModel,
	})

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.Save || opts.ReportDir != "" {
		dir := cfg.OutputDirectory
		if opts.ReportDir != "" {
			dir = opts.ReportDir
		}
		path, err := output.WriteReportFile(ctx, dir, formatter, report, now())
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		if !opts.Quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
		}
	}

	if opts.Strict && report.HasWarnings() {
		ExitCode = 1
		if !opts.Quiet {
			printStrictWarnings(cmd.ErrOrStderr(), &outcome.Diagnostics)
		}
	}

	return nil
}

// printStrictWarnings lists what made a strict run fail: one line per file
// that could not be read, then the number of unparseable lines.
func printStrictWarnings(w io.Writer, diag *pipeline.Diagnostics) {
	for _, err := range multierr.Errors(diag.Err()) {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
	if n := diag.TotalParseErrors(); n > 0 {
		fmt.Fprintf(w, "Warning: %d line(s) could not be parsed\n", n)
	}
}

// resolveTimeRange turns the date flags into a half-open [start, end)
// window. Both bounds are zero for --all-time.
func resolveTimeRange(opts *AnalyzeOptions, cfg *config.Config, now time.Time) (time.Time, time.Time, error) {
	if opts.AllTime {
		if opts.Start != "" || opts.End != "" || opts.Days != 0 {
			return time.Time{}, time.Time{}, errors.New("--all-time cannot be combined with --start, --end or --days")
		}
		return time.Time{}, time.Time{}, nil
	}
	if opts.Days < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --days %d: must be positive", opts.Days)
	}

	loc := cfg.Location()

	end := now
	if opts.End != "" {
		t, err := parseDate(opts.End, loc, true)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}

	start, _ := cfg.DateRange(end)
	if opts.Days > 0 {
		start = end.AddDate(0, 0, -opts.Days)
	}
	if opts.Start != "" {
		t, err := parseDate(opts.Start, loc, false)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid time range: start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}

// parseDate accepts YYYY-MM-DD in loc or an RFC 3339 timestamp. A bare date
// used as an end bound covers the whole day.
func parseDate(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1)
		}
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not YYYY-MM-DD or an RFC 3339 timestamp", s)
}

// createFormatter creates the appropriate output formatter.
func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
}
