package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/internal/cli/plugins"
	"github.com/ccollicutt/kiropulse/pkg/config"
	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// maxDetails caps the file lists shown under a check.
const maxDetails = 10

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues before running an analysis.

This command checks:
- Config file existence and syntax (defaults apply when it is missing)
- Log directory existence and the log files found in it
- Whether every log file is claimed by a handler
- The Kiro settings document
- Custom parser plugins and enabled metrics

Example:
  kiropulse diagnose
  kiropulse diagnose -v ~/.kiropulse/config.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := config.DefaultPath()
			if len(args) == 1 {
				configPath = args[0]
			}
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), configPath, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check log directory
	descs, result := checkLogDir(ctx, cfg)
	results = append(results, result)

	// 4. Check recent activity and handler coverage
	if len(descs) > 0 {
		results = append(results, checkRecentLogs(cfg, descs, time.Now()))
		results = append(results, checkHandlerCoverage(cfg, descs))
	}

	// 5. Check settings document
	results = append(results, checkSettings(cfg))

	// 6. Check custom parsers and metrics
	results = append(results, checkCustomParsers(cfg)...)
	results = append(results, checkMetrics(cfg))

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Config file not found: %s (defaults apply)", path)
		result.Suggests = []string{
			"Use 'kiropulse detect <log-file> --write-config " + path + "' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "warning"
		result.Message = "Config file is empty (defaults apply)"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.LoadOrDefault(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		} else {
			result.Suggests = []string{
				fmt.Sprintf("Run 'kiropulse validate %s' for details", path),
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config loaded successfully"
	result.Details = []string{
		fmt.Sprintf("Log directory: %s", cfg.LogDir),
		fmt.Sprintf("Default range: %d day(s)", cfg.DefaultDateRangeDays),
		fmt.Sprintf("Timezone: %s", cfg.Location()),
	}
	return cfg, result
}

// checkLogDir walks the log directory without a date filter and returns
// what it found.
func checkLogDir(ctx context.Context, cfg *config.Config) ([]discovery.LogFileDescriptor, DiagnosticResult) {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Log Directory: %s", cfg.LogDir),
	}

	var unreadable []string
	descs, err := discovery.Discover(ctx, cfg.LogDir,
		discovery.WithoutTimeFilter(),
		discovery.WithLogger(slog.New(slog.DiscardHandler)),
		discovery.WithSkipFunc(func(path string, err error) {
			unreadable = append(unreadable, fmt.Sprintf("%s: %v", path, err))
		}),
	)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		switch {
		case errors.Is(err, discovery.ErrRootNotFound):
			result.Suggests = []string{
				"Check that Kiro is installed and has been used on this machine",
				"Set log_dir in the config or KIROPULSE_LOG_DIR to the Kiro application folder",
			}
		case errors.Is(err, discovery.ErrRootNotDir):
			result.Suggests = []string{"log_dir must be a directory, not a file"}
		default:
			result.Suggests = []string{"Check directory permissions"}
		}
		return nil, result
	}

	if len(descs) == 0 {
		result.Status = "warning"
		result.Message = "No log files found"
		result.Suggests = []string{
			"Log files end in .log, .json, .jsonl or .txt",
			"Check that log_dir points at the Kiro application folder",
		}
		return nil, result
	}

	counts := make(map[discovery.FileKind]int)
	for _, d := range descs {
		counts[d.Kind]++
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found %d log file(s)", len(descs))
	for _, kind := range discovery.AllKinds() {
		if counts[kind] > 0 {
			result.Details = append(result.Details, fmt.Sprintf("%s: %d", kind, counts[kind]))
		}
	}
	if len(unreadable) > 0 {
		result.Status = "warning"
		result.Message += fmt.Sprintf(", %d path(s) unreadable", len(unreadable))
		result.Details = append(result.Details, limitDetails(unreadable)...)
		result.Suggests = []string{"Check permissions on the paths listed"}
	}
	return descs, result
}

// checkRecentLogs warns when nothing falls inside the default window, which
// would make a plain 'kiropulse analyze' report nothing.
func checkRecentLogs(cfg *config.Config, descs []discovery.LogFileDescriptor, now time.Time) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Recent Activity",
	}

	start, end := cfg.DateRange(now)
	recent := 0
	var newest time.Time
	for _, d := range descs {
		if d.Overlaps(start, end) {
			recent++
		}
		if t := d.RelevanceTime(); t.After(newest) {
			newest = t
		}
	}

	if recent == 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("No log files in the last %d day(s)", cfg.DefaultDateRangeDays)
		result.Details = []string{fmt.Sprintf("Newest log: %s", newest.Format("2006-01-02 15:04"))}
		result.Suggests = []string{"Use 'kiropulse analyze --all-time' or widen --days"}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d log file(s) in the last %d day(s)", recent, cfg.DefaultDateRangeDays)
	return result
}

// checkHandlerCoverage reports which handler claims each log file.
func checkHandlerCoverage(cfg *config.Config, descs []discovery.LogFileDescriptor) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Log Formats",
	}

	reg := newRegistry(cfg, slog.New(slog.DiscardHandler))
	counts := make(map[string]int)
	var unrecognized []string
	for _, d := range descs {
		if d.Kind == discovery.KindSettings {
			continue
		}
		h, err := reg.Select(d)
		if err != nil {
			unrecognized = append(unrecognized, d.Path)
			continue
		}
		counts[h.Name()]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result.Details = append(result.Details, fmt.Sprintf("%s: %d file(s)", name, counts[name]))
	}

	if len(unrecognized) > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d file(s) in an unrecognized format will be skipped", len(unrecognized))
		result.Details = append(result.Details, limitDetails(unrecognized)...)
		result.Suggests = []string{
			"Use 'kiropulse detect <log-file>' to inspect a file",
			"Add a custom parser plugin for formats kiropulse does not know",
		}
		return result
	}

	result.Status = "ok"
	result.Message = "Every log file is claimed by a handler"
	return result
}

func checkSettings(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Settings: %s", cfg.SettingsPath),
	}

	s, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot read settings document: %v", err)
		result.Suggests = []string{"Model settings will be missing from reports"}
		return result
	}
	if s.IsZero() {
		result.Status = "warning"
		result.Message = "No model settings found"
		result.Suggests = []string{"Set settings_path if Kiro keeps its settings elsewhere"}
		return result
	}

	result.Status = "ok"
	result.Message = "Model settings found"
	result.Details = []string{
		fmt.Sprintf("Configured model: %s", valueOrNotSet(s.ConfiguredModel)),
		fmt.Sprintf("Agent model: %s", valueOrNotSet(s.AgentModel)),
		fmt.Sprintf("Autonomy mode: %s", valueOrNotSet(s.AutonomyMode)),
	}
	return result
}

func checkCustomParsers(cfg *config.Config) []DiagnosticResult {
	results := []DiagnosticResult{}

	for _, name := range cfg.CustomParsers {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Custom Parser: %s", name),
		}
		path, err := plugins.FindParser(name)
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("%s not found", plugins.ParserBinary(name))
			result.Suggests = []string{
				fmt.Sprintf("Install %s in PATH or ~/.kiropulse/plugins/", plugins.ParserBinary(name)),
				"Or remove it from custom_parsers",
			}
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Found: %s", path)
		}
		results = append(results, result)
	}

	return results
}

func checkMetrics(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Metrics",
	}

	calculators, err := metrics.Select(cfg.EnabledMetrics)
	if err != nil {
		result.Status = "error"
		result.Message = err.Error()
		return result
	}

	result.Status = "ok"
	if len(cfg.EnabledMetrics) == 0 {
		result.Message = fmt.Sprintf("All %d calculators enabled", len(calculators))
	} else {
		result.Message = fmt.Sprintf("%d calculator(s) enabled", len(calculators))
	}
	for _, c := range calculators {
		result.Details = append(result.Details, c.Name())
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== kiropulse Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}

// limitDetails truncates a detail list to maxDetails entries.
func limitDetails(items []string) []string {
	if len(items) <= maxDetails {
		return items
	}
	out := append([]string{}, items[:maxDetails]...)
	return append(out, fmt.Sprintf("... and %d more", len(items)-maxDetails))
}
