package analyzer

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// cancelCheckInterval is how many records the partition pass handles
// between context checks.
const cancelCheckInterval = 4096

// Analyzer computes metrics for a set of records.
type Analyzer struct {
	timeRange   *TimeRange
	calculators []metrics.Calculator
	settings    settings.Settings
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTimeRange limits analysis to records in [start, end). A zero bound is
// open.
func WithTimeRange(start, end time.Time) Option {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// WithCalculators replaces the default calculator set.
func WithCalculators(calcs []metrics.Calculator) Option {
	return func(a *Analyzer) {
		if len(calcs) > 0 {
			a.calculators = calcs
		}
	}
}

// WithSettings attaches the model settings to the result.
func WithSettings(s settings.Settings) Option {
	return func(a *Analyzer) {
		a.settings = s
	}
}

// WithConcurrency bounds how many groups are computed at once.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the clock used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an analyzer. Without options it considers every
// record and runs every built-in calculator.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		calculators: metrics.DefaultCalculators(),
		concurrency: runtime.NumCPU(),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type groupKind int

const (
	groupOverall groupKind = iota
	groupProject
	groupModel
)

type group struct {
	kind    groupKind
	key     string
	records []*record.LogRecord
}

// Analyze groups records and computes metrics for each group. The records
// slice is not modified. On cancellation it returns ctx.Err() and no
// result.
func (a *Analyzer) Analyze(ctx context.Context, records []*record.LogRecord) (*AnalysisResult, error) {
	result := &AnalysisResult{
		ByProject:  make(map[string]metrics.Result),
		ByModel:    make(map[string]metrics.Result),
		ModelUsage: make(map[string]int),
		Settings:   a.settings,
		Metadata: Metadata{
			RunID:       uuid.NewString(),
			Period:      a.timeRange,
			RecordsSeen: len(records),
			StartTime:   a.now(),
		},
	}

	groups, err := a.partition(ctx, records, result.ModelUsage)
	if err != nil {
		return nil, err
	}
	result.Metadata.RecordsInRange = len(groups[0].records)

	a.logger.Debug("partitioned records",
		"run_id", result.Metadata.RunID,
		"seen", len(records),
		"in_range", result.Metadata.RecordsInRange,
		"groups", len(groups))

	computed := make([]metrics.Result, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			computed[i] = metrics.Compute(groups[i].records, a.calculators)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, grp := range groups {
		switch grp.kind {
		case groupOverall:
			result.Overall = computed[i]
		case groupProject:
			result.ByProject[grp.key] = computed[i]
		case groupModel:
			result.ByModel[grp.key] = computed[i]
		}
	}

	result.Metadata.EndTime = a.now()
	return result, nil
}

// partition makes a single pass over records. The overall group is always
// first.
func (a *Analyzer) partition(ctx context.Context, records []*record.LogRecord, usage map[string]int) ([]group, error) {
	var overall []*record.LogRecord
	byProject := make(map[string][]*record.LogRecord)
	byModel := make(map[string][]*record.LogRecord)
	var projectOrder, modelOrder []string

	for i, r := range records {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if r == nil || !a.timeRange.Contains(r.Timestamp) {
			continue
		}
		overall = append(overall, r)

		project := record.ProjectKey(r.Payload)
		if _, ok := byProject[project]; !ok {
			projectOrder = append(projectOrder, project)
		}
		byProject[project] = append(byProject[project], r)

		if model, ok := record.ModelKey(r.Payload); ok {
			if _, seen := byModel[model]; !seen {
				modelOrder = append(modelOrder, model)
			}
			byModel[model] = append(byModel[model], r)
			usage[model]++
		}
	}

	groups := make([]group, 0, 1+len(projectOrder)+len(modelOrder))
	groups = append(groups, group{kind: groupOverall, records: overall})
	for _, key := range projectOrder {
		groups = append(groups, group{kind: groupProject, key: key, records: byProject[key]})
	}
	for _, key := range modelOrder {
		groups = append(groups, group{kind: groupModel, key: key, records: byModel[key]})
	}
	return groups, nil
}
