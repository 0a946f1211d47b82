package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readLine struct {
	text string
	num  int
	err  error
}

func drain(t *testing.T, lr *lineReader) []readLine {
	t.Helper()
	var out []readLine
	for i := 0; i < 100; i++ {
		text, num, err := lr.next()
		if errors.Is(err, io.EOF) {
			return out
		}
		out = append(out, readLine{text, num, err})
		var lineErr *LineError
		if err != nil && !errors.As(err, &lineErr) {
			return out
		}
	}
	t.Fatal("line reader did not terminate")
	return nil
}

func TestLineReader_SkipsBlankLinesAndKeepsNumbering(t *testing.T) {
	input := "\xEF\xBB\xBFfirst\r\n\n   \nsecond\nthird"
	got := drain(t, newLineReader(strings.NewReader(input), 1024))

	require.Len(t, got, 3)
	assert.Equal(t, readLine{"first", 1, nil}, got[0])
	assert.Equal(t, readLine{"second", 4, nil}, got[1])
	assert.Equal(t, readLine{"third", 5, nil}, got[2])
}

func TestLineReader_LongLineIsRecoverable(t *testing.T) {
	long := strings.Repeat("x", 100)
	input := "ok\n" + long + "\nafter\n"

	got := drain(t, newLineReader(strings.NewReader(input), 16))

	require.Len(t, got, 3)
	assert.Equal(t, "ok", got[0].text)

	var lineErr *LineError
	require.True(t, errors.As(got[1].err, &lineErr))
	assert.ErrorIs(t, got[1].err, ErrLineTooLong)
	assert.Equal(t, 2, lineErr.Line)

	assert.Equal(t, readLine{"after", 3, nil}, got[2])
}

func TestLineReader_LongLineBeyondBuffer(t *testing.T) {
	// Longer than the bufio buffer so the line arrives in several chunks.
	long := strings.Repeat("y", 3*readBufferSize)
	input := long + "\nshort\n"

	got := drain(t, newLineReader(strings.NewReader(input), 1024))

	require.Len(t, got, 2)
	assert.ErrorIs(t, got[0].err, ErrLineTooLong)
	assert.Equal(t, "short", got[1].text)
}

func TestLineReader_LineAtLimitIsKept(t *testing.T) {
	input := "abcd\r\n"
	got := drain(t, newLineReader(strings.NewReader(input), 4))

	require.Len(t, got, 1)
	assert.Equal(t, readLine{"abcd", 1, nil}, got[0])
}

func TestLineReader_InvalidUTF8IsFileLevel(t *testing.T) {
	input := "fine\nbad \xff\xfe bytes\nnever read\n"
	got := drain(t, newLineReader(strings.NewReader(input), 1024))

	require.Len(t, got, 2)
	assert.NoError(t, got[0].err)

	var lineErr *LineError
	assert.False(t, errors.As(got[1].err, &lineErr))
	assert.ErrorIs(t, got[1].err, ErrUndecodable)
}

func TestLineReader_EmptyInput(t *testing.T) {
	_, _, err := newLineReader(strings.NewReader(""), 1024).next()
	assert.ErrorIs(t, err, io.EOF)
}
