// Package record defines the normalized log record produced by parsers and the
// payload accessors and grouping keys derived from it.
package record

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Event kinds the metric calculators look for. Parsers may emit others.
const (
	KindRequest           = "request"
	KindResponse          = "response"
	KindToolInvocation    = "tool_invocation"
	KindConversationStart = "conversation_start"
	KindUnknown           = "unknown"
)

// LogRecord is one successfully parsed unit of activity.
// Records are read-only once a parser has returned them.
type LogRecord struct {
	// Timestamp is when the event happened, in the zone the log recorded.
	Timestamp time.Time

	// Kind is the event kind, e.g. "request" or "tool_invocation".
	Kind string

	// Payload holds the event-specific fields.
	Payload Payload

	// Source is the file path the record came from. Diagnostics only.
	Source string

	// Line is the 1-based line number within Source.
	Line int
}

// Payload is an open key/value map. Every accessor reports whether the value
// was present and convertible so callers pick their own default.
type Payload map[string]any

// Lookup returns the raw value stored under key. A key containing dots is
// tried literally first, then as a path into nested objects. Null values are
// treated as absent.
func (p Payload) Lookup(key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, v != nil
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}

	var cur any = map[string]any(p)
	for _, part := range strings.Split(key, ".") {
		m, err := cast.ToStringMapE(cur)
		if err != nil {
			return nil, false
		}
		v, ok := m[part]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Has reports whether key holds a non-null value.
func (p Payload) Has(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// String returns the value under key as a string.
func (p Payload) String(key string) (string, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Float returns the value under key as a float64. Numeric strings convert.
func (p Payload) Float(key string) (float64, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the value under key as an int. Fractional values truncate.
func (p Payload) Int(key string) (int, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the value under key as a bool.
func (p Payload) Bool(key string) (bool, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Map returns the nested object under key.
func (p Payload) Map(key string) (map[string]any, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return nil, false
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, false
	}
	return m, true
}

// Strings returns the list under key. A single string becomes a one-element
// list.
func (p Payload) Strings(key string) ([]string, bool) {
	v, ok := p.Lookup(key)
	if !ok {
		return nil, false
	}
	if s, isString := v.(string); isString {
		return []string{s}, true
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, false
	}
	return ss, true
}

// FirstString returns the first non-blank string among keys.
func (p Payload) FirstString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p.String(k); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}
