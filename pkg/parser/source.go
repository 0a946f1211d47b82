package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

// decodeFunc turns one line into a record. It returns (nil, nil) for lines
// that are not units of their own, such as continuation lines.
type decodeFunc func(line string) (*record.LogRecord, error)

// lineSource is a RecordSource over a line-oriented stream.
type lineSource struct {
	source string
	closer io.Closer
	lines  *lineReader
	decode decodeFunc
}

func newLineSource(source string, rc io.ReadCloser, maxLineBytes int, decode decodeFunc) *lineSource {
	return &lineSource{
		source: source,
		closer: rc,
		lines:  newLineReader(rc, maxLineBytes),
		decode: decode,
	}
}

// openLineSource opens path for line-by-line decoding.
func openLineSource(path string, maxLineBytes int, decode decodeFunc) (RecordSource, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from discovery
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return newLineSource(path, f, maxLineBytes, decode), nil
}

// Next returns the next record, skipping lines the decoder ignores.
func (s *lineSource) Next(ctx context.Context) (*record.LogRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, n, err := s.lines.next()
		if err != nil {
			var lineErr *LineError
			switch {
			case errors.As(err, &lineErr):
				lineErr.Source = s.source
				return nil, lineErr
			case errors.Is(err, io.EOF):
				return nil, io.EOF
			default:
				return nil, fmt.Errorf("reading %s: %w", s.source, err)
			}
		}

		rec, err := s.decode(line)
		if err != nil {
			return nil, &LineError{Source: s.source, Line: n, Err: err}
		}
		if rec == nil {
			continue
		}

		rec.Source = s.source
		rec.Line = n
		return rec, nil
	}
}

// Close releases the underlying stream.
func (s *lineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
