package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/parser"
)

// DiscoverOptions holds command-line options for the discover command.
type DiscoverOptions struct {
	ConfigPath string
	Kinds      []string
	Days       int
	AllTime    bool
	Output     string
	Verbose    bool
}

// DiscoveredFile is one row of discover output.
type DiscoveredFile struct {
	Path       string     `json:"path"`
	Kind       string     `json:"kind"`
	Size       int64      `json:"size"`
	ModifiedAt time.Time  `json:"modified_at"`
	NameTime   *time.Time `json:"name_time,omitempty"`
	Handler    string     `json:"handler"`
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand() *cobra.Command {
	opts := &DiscoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [log-dir]",
		Short: "List the log files an analysis would read",
		Long: `List the candidate log files under a directory with their kind, size,
modification time and the handler that would parse them.

The same date filter as analyze is applied: by default only files relevant
to the last default_date_range_days days are listed.

Example:
  kiropulse discover
  kiropulse discover --all-time --kind activity --kind session
  kiropulse discover -o json ~/kiro-logs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ~/.kiropulse/config.yaml)")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "Only list files of this kind (activity|metrics|session|settings|unknown)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "List files relevant to the last N days")
	cmd.Flags().BoolVar(&opts.AllTime, "all-time", false, "List files regardless of date")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Debug logging")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string, opts *DiscoverOptions) error {
	ctx := commandContext(cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, false)

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unsupported output format %q (use text or json)", opts.Output)
	}
	if opts.Days < 0 {
		return fmt.Errorf("invalid --days %d: must be positive", opts.Days)
	}

	cfg, err := loadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logDir := cfg.LogDir
	if len(args) == 1 {
		logDir = args[0]
	}

	discoverOpts := []discovery.Option{discovery.WithLogger(logger)}
	switch {
	case opts.AllTime:
		discoverOpts = append(discoverOpts, discovery.WithoutTimeFilter())
	case opts.Days > 0:
		now := time.Now()
		discoverOpts = append(discoverOpts, discovery.WithTimeRange(now.AddDate(0, 0, -opts.Days), now))
	default:
		discoverOpts = append(discoverOpts, discovery.WithTimeRange(cfg.DateRange(time.Now())))
	}

	if len(opts.Kinds) > 0 {
		kinds := make([]discovery.FileKind, 0, len(opts.Kinds))
		for _, k := range opts.Kinds {
			kind, err := discovery.ParseKind(k)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}
		discoverOpts = append(discoverOpts, discovery.WithKinds(kinds...))
	}

	descs, err := discovery.Discover(ctx, logDir, discoverOpts...)
	if err != nil {
		return fmt.Errorf("discovering logs: %w", err)
	}

	files := describeFiles(descs, newRegistry(cfg, logger))

	out := cmd.OutOrStdout()
	if opts.Output == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(files)
	}
	return outputDiscoverText(out, logDir, files)
}

// describeFiles pairs each descriptor with the handler that would parse it.
// Settings documents are read separately and never parsed as logs.
func describeFiles(descs []discovery.LogFileDescriptor, reg *parser.Registry) []DiscoveredFile {
	files := make([]DiscoveredFile, 0, len(descs))
	for _, d := range descs {
		f := DiscoveredFile{
			Path:       d.Path,
			Kind:       string(d.Kind),
			Size:       d.Size,
			ModifiedAt: d.ModifiedAt,
			Handler:    "-",
		}
		if !d.NameTime.IsZero() {
			nt := d.NameTime
			f.NameTime = &nt
		}
		if d.Kind == discovery.KindSettings {
			f.Handler = "settings"
		} else if h, err := reg.Select(d); err == nil {
			f.Handler = h.Name()
		}
		files = append(files, f)
	}
	return files
}

func outputDiscoverText(w io.Writer, logDir string, files []DiscoveredFile) error {
	if len(files) == 0 {
		fmt.Fprintf(w, "No log files found under %s\n", logDir)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tHANDLER\tSIZE\tMODIFIED\tPATH")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			f.Kind, f.Handler, f.Size, f.ModifiedAt.Local().Format("2006-01-02 15:04"), f.Path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d file(s) under %s\n", len(files), logDir)
	return nil
}
