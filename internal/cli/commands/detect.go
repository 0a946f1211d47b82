package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/parser"
	"github.com/ccollicutt/kiropulse/pkg/timefmt"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Show how a log file would be parsed",
		Long: `Inspect a single log file: which handler claims it, what kind discovery
assigns to it, and which timestamp format its lines start with.

Samples lines from the file and tests them against the known timestamp
formats. Reports the best match with a confidence score.

Optionally generates a starter config pointing at the file's directory
with --write-config.

Example:
  kiropulse detect ~/Library/Application\ Support/Kiro/logs/kiro.log
  kiropulse detect --sample 500 activity.log
  kiropulse detect --write-config ~/.kiropulse/config.yaml kiro.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", timefmt.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

// fileDetection is everything detect learns about one file.
type fileDetection struct {
	Path    string
	Kind    discovery.FileKind
	Handler string
	Result  *timefmt.DetectionResult
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	info, err := os.Stat(logFile)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("log file not found: %s", logFile)
	}
	if err != nil {
		return fmt.Errorf("cannot access log file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, use 'kiropulse discover' instead", logFile)
	}

	absPath, err := filepath.Abs(logFile)
	if err != nil {
		absPath = logFile
	}

	d := timefmt.New(timefmt.WithSampleSize(opts.SampleSize))
	result, err := d.DetectFromFile(ctx, absPath)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	desc := discovery.LogFileDescriptor{
		Path:       absPath,
		Kind:       discovery.Classify(absPath),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}
	det := &fileDetection{Path: absPath, Kind: desc.Kind, Result: result}
	if h, err := parser.DefaultRegistry().Select(desc); err == nil {
		det.Handler = h.Name()
	}

	out := cmd.OutOrStdout()
	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, det, opts.WriteConfig); err != nil {
			return err
		}
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(out, det, opts)
	default:
		return outputDetectText(out, det, opts)
	}
}

func outputDetectText(w io.Writer, det *fileDetection, opts *DetectOptions) error {
	result := det.Result

	fmt.Fprintln(w, "=== Log File Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", det.Path)
	fmt.Fprintf(w, "Kind: %s\n", det.Kind)
	if det.Handler != "" {
		fmt.Fprintf(w, "Handler: %s\n", det.Handler)
	} else {
		fmt.Fprintln(w, "Handler: none (file would be skipped as unrecognized)")
	}
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Lines with timestamps: %d\n", result.ParsedLines)
	fmt.Fprintln(w)

	if !result.HasMatch() {
		fmt.Fprintln(w, "No line-leading timestamp format detected.")
		fmt.Fprintln(w)
		if det.Handler == "json" {
			fmt.Fprintln(w, "JSON records carry their timestamp in a field, so this is expected.")
		} else {
			fmt.Fprintln(w, "Tip: The file may use an uncommon format.")
			fmt.Fprintln(w, "Lines without a recognized timestamp are counted as parse errors.")
		}
		return nil
	}

	best := result.BestMatch()
	fmt.Fprintf(w, "Detected Format: %s\n", best.Format.Name)
	fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintf(w, "Parsed as: %s\n", best.ParsedTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(w)

	if best.Format.Ambiguous {
		fmt.Fprintln(w, "WARNING: This format has date ordering ambiguity (MM/DD vs DD/MM).")
		fmt.Fprintln(w, "Check the parsed time above against the log.")
		fmt.Fprintln(w)
	}
	if result.AmbiguityNote != "" {
		fmt.Fprintf(w, "Note: %s\n", result.AmbiguityNote)
		fmt.Fprintln(w)
	}

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(w, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.Name, m.Confidence*100)
			fmt.Fprintf(w, "   layout: \"%s\"\n", m.Format.Layout)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Pattern    string  `json:"pattern"`
	Layout     string  `json:"layout"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
	Ambiguous  bool    `json:"ambiguous,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File          string      `json:"file"`
	Kind          string      `json:"kind"`
	Handler       string      `json:"handler,omitempty"`
	Matches       []JSONMatch `json:"matches"`
	SampledLines  int         `json:"sampled_lines"`
	ParsedLines   int         `json:"parsed_lines"`
	AmbiguityNote string      `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(w io.Writer, det *fileDetection, opts *DetectOptions) error {
	result := det.Result
	out := JSONOutput{
		File:          det.Path,
		Kind:          string(det.Kind),
		Handler:       det.Handler,
		SampledLines:  result.SampledLines,
		ParsedLines:   result.ParsedLines,
		AmbiguityNote: result.AmbiguityNote,
		Matches:       make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:       m.Format.Name,
			Pattern:    m.Format.PatternStr,
			Layout:     m.Format.Layout,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
			Ambiguous:  m.Format.Ambiguous,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig writes a config whose log_dir is the directory holding
// the inspected file.
func writeStarterConfig(w io.Writer, det *fileDetection, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(generateStarterConfig(det)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(det *fileDetection) string {
	handler := det.Handler
	if handler == "" {
		handler = "none"
	}

	return fmt.Sprintf(`# kiropulse configuration
# Generated by: kiropulse detect
# Inspected: %s (handler: %s)

# Directory searched recursively for .log, .json, .jsonl and .txt files.
log_dir: %q

# Analysis window when no --start/--end/--days flags are given.
default_date_range_days: 7

# Where --save writes report files.
output_directory: "~/.kiropulse/reports"

# Calculators to run; leave empty for all of them.
# enabled_metrics:
#   - requests
#   - response_time
#   - code_generation
#   - tool_usage
#   - activity
#   - characters
#   - models

# External parsers, tried before the built-in ones.
# Each name is a kiropulse-parser-<name> binary on PATH.
# custom_parsers:
#   - vscode

# Zone for timestamps without an offset; empty means local time.
# timezone: "UTC"
`, det.Path, handler, filepath.Dir(det.Path))
}
