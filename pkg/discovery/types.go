// Package discovery locates candidate log files under a root directory and
// filters them by date before any content is read.
package discovery

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileKind classifies a discovered file by its name.
type FileKind string

const (
	KindActivity FileKind = "activity"
	KindMetrics  FileKind = "metrics"
	KindSession  FileKind = "session"
	KindSettings FileKind = "settings"
	KindUnknown  FileKind = "unknown"
)

// AllKinds lists every kind in display order.
func AllKinds() []FileKind {
	return []FileKind{KindActivity, KindMetrics, KindSession, KindSettings, KindUnknown}
}

// ParseKind converts a kind name, as typed on the command line, to a FileKind.
func ParseKind(s string) (FileKind, error) {
	k := FileKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown file kind %q", s)
}

// Classify infers the kind of a file from its base name.
func Classify(path string) FileKind {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "activity"):
		return KindActivity
	case strings.Contains(base, "metrics"):
		return KindMetrics
	case strings.Contains(base, "session"):
		return KindSession
	case strings.HasPrefix(base, "settings") && strings.HasSuffix(base, ".json"):
		return KindSettings
	default:
		return KindUnknown
	}
}

// LogFileDescriptor describes one discovered file. Descriptors are values and
// are never changed after discovery.
type LogFileDescriptor struct {
	// Path is the absolute file path.
	Path string

	// Kind is the kind inferred from the file name.
	Kind FileKind

	// Size is the file size in bytes.
	Size int64

	// CreatedAt is the creation time where the platform reports one,
	// otherwise the modification time.
	CreatedAt time.Time

	// ModifiedAt is the last modification time.
	ModifiedAt time.Time

	// NameTime is the timestamp embedded in the file or directory name,
	// zero if there is none.
	NameTime time.Time

	// NameSpan is the precision of NameTime: 24h for a bare date, zero for
	// a full timestamp.
	NameSpan time.Duration
}

// RelevanceTime is the time used to order and display a file: the name
// timestamp when present, else the modification time.
func (d LogFileDescriptor) RelevanceTime() time.Time {
	if !d.NameTime.IsZero() {
		return d.NameTime
	}
	return d.ModifiedAt
}

// RelevanceWindow is the span of time a file may hold records for. A named
// file covers its name timestamp (or whole named day) up to its last write.
// An unnamed file may hold records from any time up to its last write, so
// its window has a zero start.
func (d LogFileDescriptor) RelevanceWindow() (from, to time.Time) {
	if d.NameTime.IsZero() {
		return time.Time{}, d.ModifiedAt
	}
	from = d.NameTime
	to = d.NameTime.Add(d.NameSpan)
	if d.ModifiedAt.After(to) {
		to = d.ModifiedAt
	}
	return from, to
}

// Overlaps reports whether the file's relevance window intersects
// [start, end). A zero start or end leaves that side open.
func (d LogFileDescriptor) Overlaps(start, end time.Time) bool {
	from, to := d.RelevanceWindow()
	if !end.IsZero() && !from.Before(end) {
		return false
	}
	if start.IsZero() {
		return true
	}
	// A last write is a record time; the end of a named day is exclusive.
	if to.Equal(d.ModifiedAt) {
		return !to.Before(start)
	}
	return to.After(start)
}

// Sentinel discovery failures.
var (
	ErrRootNotFound = errors.New("log directory does not exist")
	ErrRootNotDir   = errors.New("log path is not a directory")
)

// DiscoveryError is returned when the root itself cannot be walked.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovering logs in %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
