package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadAccessors(t *testing.T) {
	p := Payload{
		"count":    float64(12),
		"ratio":    "1.5",
		"flag":     true,
		"name":     "read_file",
		"tools":    []any{"a", "b"},
		"nested":   map[string]any{"inner": map[string]any{"v": "deep"}},
		"nothing":  nil,
		"a.b":      "literal",
		"bad_num":  "fast",
		"yes_text": "true",
	}

	n, ok := p.Int("count")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	f, ok := p.Float("ratio")
	require.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	_, ok = p.Float("bad_num")
	assert.False(t, ok)

	_, ok = p.Float("flag")
	assert.False(t, ok, "bools are not numbers")

	b, ok := p.Bool("yes_text")
	require.True(t, ok)
	assert.True(t, b)

	s, ok := p.String("name")
	require.True(t, ok)
	assert.Equal(t, "read_file", s)

	_, ok = p.String("nested")
	assert.False(t, ok, "objects are not strings")

	ss, ok := p.Strings("tools")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ss)

	ss, ok = p.Strings("name")
	require.True(t, ok)
	assert.Equal(t, []string{"read_file"}, ss)

	s, ok = p.String("nested.inner.v")
	require.True(t, ok)
	assert.Equal(t, "deep", s)

	s, ok = p.String("a.b")
	require.True(t, ok)
	assert.Equal(t, "literal", s)

	m, ok := p.Map("nested")
	require.True(t, ok)
	assert.Contains(t, m, "inner")

	assert.False(t, p.Has("nothing"))
	assert.False(t, p.Has("missing"))
	assert.False(t, p.Has("nested.missing.v"))
	assert.True(t, p.Has("flag"))
}

func TestPayloadFirstString(t *testing.T) {
	p := Payload{"a": " ", "b": "second", "c": "third"}
	s, ok := p.FirstString("missing", "a", "b", "c")
	require.True(t, ok)
	assert.Equal(t, "second", s)

	_, ok = Payload{}.FirstString("x")
	assert.False(t, ok)
}
