package parser

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/timefmt"
)

// Field names searched, in order, for a record's timestamp and kind.
var (
	jsonTimestampFields = []string{"timestamp", "time", "datetime", "date", "@timestamp", "ts"}
	jsonKindFields      = []string{"event_type", "event", "type", "level", "action"}
)

// JSONHandler parses files holding one JSON object per line.
type JSONHandler struct {
	cfg config
}

// NewJSONHandler creates a JSON lines handler.
func NewJSONHandler(opts ...Option) *JSONHandler {
	return &JSONHandler{cfg: newConfig(opts)}
}

// Name implements Handler.
func (h *JSONHandler) Name() string { return "json" }

// CanHandle claims .json and .jsonl files, and .log files whose first
// non-blank line is a JSON object.
func (h *JSONHandler) CanHandle(desc discovery.LogFileDescriptor) bool {
	if hasExt(desc.Path, ".json", ".jsonl") {
		return true
	}
	if !hasExt(desc.Path, ".log") {
		return false
	}
	lines := sniff(desc.Path)
	if len(lines) == 0 {
		return false
	}
	first := strings.TrimSpace(lines[0])
	return strings.HasPrefix(first, "{") && json.Valid([]byte(first))
}

// Open implements Handler.
func (h *JSONHandler) Open(_ context.Context, desc discovery.LogFileDescriptor) (RecordSource, error) {
	return openLineSource(desc.Path, h.cfg.maxLineBytes, h.decode)
}

// NewJSONStream reads JSON lines from an arbitrary stream, such as the
// output of an external parser. Closing the source closes rc.
func NewJSONStream(source string, rc io.ReadCloser, opts ...Option) RecordSource {
	h := NewJSONHandler(opts...)
	return newLineSource(source, rc, h.cfg.maxLineBytes, h.decode)
}

func (h *JSONHandler) decode(line string) (*record.LogRecord, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}

	payload := record.Payload(obj)
	ts, ok := jsonTimestamp(payload, h.cfg.location)
	if !ok {
		return nil, ErrNoTimestamp
	}

	kind := record.KindUnknown
	for _, field := range jsonKindFields {
		if payload.Has(field) {
			if s, ok := payload.String(field); ok && strings.TrimSpace(s) != "" {
				kind = strings.ToLower(strings.TrimSpace(s))
			}
			break
		}
	}

	return &record.LogRecord{
		Timestamp: ts,
		Kind:      kind,
		Payload:   payload,
	}, nil
}

// jsonTimestamp reads the first timestamp field that parses. Strings go
// through timefmt; numbers are Unix seconds, or milliseconds above 1e10.
func jsonTimestamp(p record.Payload, loc *time.Location) (time.Time, bool) {
	for _, field := range jsonTimestampFields {
		v, ok := p.Lookup(field)
		if !ok {
			continue
		}
		switch tv := v.(type) {
		case string:
			if ts, ok := timefmt.Parse(tv, loc); ok {
				return ts, true
			}
		case float64:
			if ts, ok := timefmt.FromNumber(tv); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
