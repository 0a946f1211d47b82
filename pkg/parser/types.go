// Package parser selects a format handler for each discovered log file and
// streams normalized records out of it without loading the file into memory.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/record"
)

// Reading limits.
const (
	// DefaultMaxLineBytes is the longest line kept; longer lines are skipped
	// and tallied as parse errors.
	DefaultMaxLineBytes = 4 << 20

	// SniffLines and SniffBytes bound how much of a file CanHandle may read.
	SniffLines = 5
	SniffBytes = 64 << 10

	readBufferSize = 64 << 10
)

var (
	// ErrUnrecognizedFormat means no registered handler claimed the file.
	ErrUnrecognizedFormat = errors.New("unrecognized log format")

	// ErrUndecodable means the file is not valid UTF-8 text.
	ErrUndecodable = errors.New("undecodable bytes")

	// Per-line failures, wrapped in a LineError.
	ErrLineTooLong = errors.New("line exceeds maximum length")
	ErrNoTimestamp = errors.New("no parseable timestamp")
	ErrMalformed   = errors.New("malformed line")
)

// LineError is a recoverable failure of one line. Iteration may continue
// after it.
type LineError struct {
	Source string
	Line   int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// RecordSource iterates over the records of one file.
// Implementations are for sequential use only.
type RecordSource interface {
	// Next returns the next record. It returns io.EOF at the end of input,
	// a *LineError for a unit that could not be parsed, and any other error
	// when the file as a whole can no longer be read.
	Next(ctx context.Context) (*record.LogRecord, error)

	// Close releases any resources held by the source.
	Close() error
}

// Handler understands one log format.
type Handler interface {
	// Name identifies the handler in diagnostics.
	Name() string

	// CanHandle reports whether the handler claims the file. It looks only
	// at the path and a bounded prefix of the content.
	CanHandle(desc discovery.LogFileDescriptor) bool

	// Open starts streaming records from the file.
	Open(ctx context.Context, desc discovery.LogFileDescriptor) (RecordSource, error)
}

type config struct {
	maxLineBytes int
	location     *time.Location
	logger       *slog.Logger
}

func newConfig(opts []Option) config {
	c := config{
		maxLineBytes: DefaultMaxLineBytes,
		location:     time.Local,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures handlers and registries.
type Option func(*config)

// WithMaxLineBytes sets the longest line kept (default 4 MiB).
func WithMaxLineBytes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxLineBytes = n
		}
	}
}

// WithLocation sets the zone for timestamps that carry no offset
// (default time.Local).
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithLogger sets the logger used for per-line diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
