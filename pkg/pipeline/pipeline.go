// Package pipeline runs a full analysis: discover files under a root, parse
// them on a bounded worker pool, and hand the records to the analyzer.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/kiropulse/pkg/analyzer"
	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/parser"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// Options configures Run.
type Options struct {
	// Root is the directory to search for logs.
	Root string

	// Start and End bound the analysis to [Start, End). When both are zero
	// and AllTime is false, the last seven days are used.
	Start, End time.Time
	AllTime    bool

	// Registry parses files. Defaults to parser.DefaultRegistry.
	Registry *parser.Registry

	// Calculators defaults to every built-in calculator.
	Calculators []metrics.Calculator

	// Settings is attached to the result.
	Settings settings.Settings

	// Workers bounds concurrent file parses. Defaults to runtime.NumCPU.
	Workers int

	Logger *slog.Logger
	Clock  func() time.Time
}

// Outcome is the result of a successful run.
type Outcome struct {
	Files       []discovery.LogFileDescriptor
	Result      *analyzer.AnalysisResult
	Diagnostics Diagnostics
}

// fileOutcome is what one worker produces for one descriptor.
type fileOutcome struct {
	report  *FileReport
	skip    *SkippedFile
	records []*record.LogRecord
}

// Run executes the pipeline. Only a discovery failure or cancellation is an
// error; every other problem is reported in the outcome's Diagnostics.
// Cancellation is observed between files: files already being parsed are
// finished, then Run returns ctx.Err() and no outcome.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	opts = withDefaults(opts)
	logger := opts.Logger

	start, end := opts.Start, opts.End
	if !opts.AllTime && start.IsZero() && end.IsZero() {
		start, end = discovery.DefaultRange(opts.Clock())
	}

	var diag Diagnostics
	discoverOpts := []discovery.Option{
		discovery.WithClock(opts.Clock),
		discovery.WithLogger(logger),
		discovery.WithSkipFunc(func(path string, err error) {
			diag.DiscoveryWarnings = append(diag.DiscoveryWarnings,
				SkippedFile{Path: path, Reason: ReasonUnreadable, Err: err})
		}),
	}
	if opts.AllTime {
		discoverOpts = append(discoverOpts, discovery.WithoutTimeFilter())
	} else {
		discoverOpts = append(discoverOpts, discovery.WithTimeRange(start, end))
	}

	files, err := discovery.Discover(ctx, opts.Root, discoverOpts...)
	if err != nil {
		return nil, fmt.Errorf("discovering logs: %w", err)
	}
	logger.Debug("discovered log files", "root", opts.Root, "count", len(files))

	outcomes := make([]fileOutcome, len(files))
	g := new(errgroup.Group)
	g.SetLimit(opts.Workers)
	for i, desc := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = parseOne(ctx, opts.Registry, desc, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*record.LogRecord
	for _, o := range outcomes {
		if o.skip != nil {
			diag.Skipped = append(diag.Skipped, *o.skip)
			continue
		}
		diag.Files = append(diag.Files, *o.report)
		records = append(records, o.records...)
	}

	analyzerOpts := []analyzer.Option{
		analyzer.WithCalculators(opts.Calculators),
		analyzer.WithSettings(opts.Settings),
		analyzer.WithConcurrency(opts.Workers),
		analyzer.WithLogger(logger),
		analyzer.WithClock(opts.Clock),
	}
	if !opts.AllTime {
		analyzerOpts = append(analyzerOpts, analyzer.WithTimeRange(start, end))
	}

	result, err := analyzer.NewAnalyzer(analyzerOpts...).Analyze(ctx, records)
	if err != nil {
		return nil, err
	}

	logger.Info("analysis complete",
		"run_id", result.Metadata.RunID,
		"files", len(diag.Files),
		"skipped", len(diag.Skipped),
		"records", result.Metadata.RecordsInRange,
		"parse_errors", diag.TotalParseErrors())

	return &Outcome{Files: files, Result: result, Diagnostics: diag}, nil
}

// parseOne parses a single file to the end. The parse is detached from
// cancellation so that a started file always finishes.
func parseOne(ctx context.Context, reg *parser.Registry, desc discovery.LogFileDescriptor, logger *slog.Logger) fileOutcome {
	if desc.Kind == discovery.KindSettings {
		return fileOutcome{skip: &SkippedFile{Path: desc.Path, Reason: ReasonSettings}}
	}

	res, err := reg.ParseFile(context.WithoutCancel(ctx), desc)
	if err != nil {
		reason := skipReason(err)
		logger.Warn("skipping log file", "path", desc.Path, "reason", reason, "error", err)
		return fileOutcome{skip: &SkippedFile{Path: desc.Path, Reason: reason, Err: err}}
	}

	if res.ParseErrors > 0 {
		logger.Debug("file had unparseable lines", "path", desc.Path, "count", res.ParseErrors)
	}
	return fileOutcome{
		report: &FileReport{
			Path:        desc.Path,
			Handler:     res.Handler,
			Records:     len(res.Records),
			ParseErrors: res.ParseErrors,
			Status:      StatusParsed,
		},
		records: res.Records,
	}
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Registry == nil {
		opts.Registry = parser.DefaultRegistry(parser.WithLogger(opts.Logger))
	}
	if len(opts.Calculators) == 0 {
		opts.Calculators = metrics.DefaultCalculators()
	}
	return opts
}
