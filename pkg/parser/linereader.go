package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// lineReader yields the non-blank lines of a stream. Memory use is bounded
// by the maximum line length regardless of the input size.
type lineReader struct {
	r    *bufio.Reader
	max  int
	buf  []byte
	line int
}

func newLineReader(r io.Reader, maxLineBytes int) *lineReader {
	return &lineReader{
		r:   bufio.NewReaderSize(r, readBufferSize),
		max: maxLineBytes,
	}
}

// next returns the next non-blank line and its 1-based number. Over-long
// lines come back as a *LineError; invalid UTF-8 is a file-level
// ErrUndecodable.
func (lr *lineReader) next() (string, int, error) {
	for {
		raw, tooLong, err := lr.readLine()
		if err != nil {
			return "", 0, err
		}
		lr.line++

		if tooLong {
			return "", lr.line, &LineError{Line: lr.line, Err: ErrLineTooLong}
		}
		if lr.line == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		if !utf8.Valid(raw) {
			return "", lr.line, fmt.Errorf("line %d: %w", lr.line, ErrUndecodable)
		}

		raw = bytes.TrimRight(raw, "\r\n")
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		return string(raw), lr.line, nil
	}
}

// readLine reads one physical line. Lines longer than the limit are
// drained up to their newline and reported as tooLong without being kept.
func (lr *lineReader) readLine() ([]byte, bool, error) {
	lr.buf = lr.buf[:0]
	tooLong := false
	read := false

	for {
		chunk, err := lr.r.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
		}
		if !tooLong {
			// The limit excludes the line terminator.
			if len(lr.buf)+len(bytes.TrimRight(chunk, "\r\n")) > lr.max {
				tooLong = true
				lr.buf = lr.buf[:0]
			} else {
				lr.buf = append(lr.buf, chunk...)
			}
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if !read {
				return nil, false, io.EOF
			}
			return lr.buf, tooLong, nil
		case err != nil:
			return nil, false, err
		default:
			return lr.buf, tooLong, nil
		}
	}
}
