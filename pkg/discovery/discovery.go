package discovery

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultWindow is the look-back used when no time range is given.
const DefaultWindow = 7 * 24 * time.Hour

// candidateExtensions are the file extensions considered log files.
var candidateExtensions = map[string]bool{
	".log":   true,
	".json":  true,
	".jsonl": true,
	".txt":   true,
}

// SkipFunc is called for every file discovery could not stat.
type SkipFunc func(path string, err error)

type options struct {
	start, end time.Time
	ranged     bool
	unbounded  bool
	now        func() time.Time
	kinds      map[FileKind]bool
	onSkip     SkipFunc
	logger     *slog.Logger
}

// Option configures Discover.
type Option func(*options)

// WithTimeRange keeps files whose relevance window intersects [start, end).
func WithTimeRange(start, end time.Time) Option {
	return func(o *options) {
		o.start, o.end = start, end
		o.ranged = true
	}
}

// WithoutTimeFilter returns every candidate regardless of its dates.
func WithoutTimeFilter() Option {
	return func(o *options) {
		o.unbounded = true
	}
}

// WithClock sets the clock used for the default range.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKinds restricts results to the given kinds.
func WithKinds(kinds ...FileKind) Option {
	return func(o *options) {
		if len(kinds) == 0 {
			return
		}
		o.kinds = make(map[FileKind]bool, len(kinds))
		for _, k := range kinds {
			o.kinds[k] = true
		}
	}
}

// WithSkipFunc registers a callback for files that could not be examined.
func WithSkipFunc(fn SkipFunc) Option {
	return func(o *options) {
		o.onSkip = fn
	}
}

// WithLogger sets the logger for warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// DefaultRange returns the last-7-days range ending at now.
func DefaultRange(now time.Time) (time.Time, time.Time) {
	return now.Add(-DefaultWindow), now
}

// Discover walks root and returns the candidate log files whose relevance
// window intersects the requested range, ordered by path. Only a missing or
// unreadable root is an error; unreadable entries below it are skipped.
func Discover(ctx context.Context, root string, opts ...Option) ([]LogFileDescriptor, error) {
	o := &options{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	now := o.now()
	if !o.ranged {
		o.start, o.end = DefaultRange(now)
	}
	if o.unbounded {
		o.start, o.end = time.Time{}, time.Time{}
	}

	absRoot, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	skip := func(path string, err error) {
		o.logger.Warn("skipping unreadable path", "path", path, "error", err)
		if o.onSkip != nil {
			o.onSkip(path, err)
		}
	}

	var found []LogFileDescriptor
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			if path == absRoot {
				return &DiscoveryError{Root: root, Err: err}
			}
			skip(path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != absRoot && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !candidateExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		kind := Classify(path)
		if o.kinds != nil && !o.kinds[kind] {
			return nil
		}

		info, err := d.Info()
		if err == nil && info.Mode()&fs.ModeSymlink != 0 {
			info, err = os.Stat(path)
		}
		if err != nil {
			skip(path, err)
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		nt, span := nameTime(absRoot, path, now.Location())
		desc := LogFileDescriptor{
			Path:       path,
			Kind:       kind,
			Size:       info.Size(),
			CreatedAt:  createdAt(info),
			ModifiedAt: info.ModTime(),
			NameTime:   nt,
			NameSpan:   span,
		}
		if !desc.Overlaps(o.start, o.end) {
			return nil
		}

		found = append(found, desc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Path < found[j].Path
	})

	return found, nil
}

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &DiscoveryError{Root: root, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &DiscoveryError{Root: root, Err: ErrRootNotFound}
		}
		return "", &DiscoveryError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return "", &DiscoveryError{Root: root, Err: ErrRootNotDir}
	}

	// WalkDir does not descend into a symlinked root.
	if linfo, err := os.Lstat(abs); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
	}

	f, err := os.Open(abs) // #nosec G304 -- user-provided log directory
	if err != nil {
		return "", &DiscoveryError{Root: root, Err: err}
	}
	defer f.Close()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", &DiscoveryError{Root: root, Err: err}
	}

	return abs, nil
}
