package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/timefmt"
)

// Shapes of the text following a line's timestamp.
var (
	textBracketed = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)
	textDashed    = regexp.MustCompile(`^-\s+(\w+)\s+-\s+(.*)$`)
	textColon     = regexp.MustCompile(`^(\w+):\s*(.*)$`)
	textKeyValue  = regexp.MustCompile(`(\w+)=("[^"]*"|\S+)`)
)

// TextHandler parses plain-text logs whose lines start with a timestamp:
//
//	[2025-01-15 10:30:00] [request] message
//	2025-01-15T10:30:00Z request: message
//	2025-01-15 10:30:00 - request - message
//
// key=value tokens in the message are copied into the payload.
type TextHandler struct {
	cfg      config
	detector *timefmt.Detector
}

// NewTextHandler creates a plain-text handler.
func NewTextHandler(opts ...Option) *TextHandler {
	cfg := newConfig(opts)
	return &TextHandler{
		cfg:      cfg,
		detector: timefmt.New(timefmt.WithLocation(cfg.location)),
	}
}

// Name implements Handler.
func (h *TextHandler) Name() string { return "text" }

// CanHandle claims every .log and .txt file. The text handler is the
// fallback, so lines without a timestamp are parse errors rather than a
// reason to skip the file.
func (h *TextHandler) CanHandle(desc discovery.LogFileDescriptor) bool {
	return hasExt(desc.Path, ".log", ".txt")
}

// Open implements Handler.
func (h *TextHandler) Open(_ context.Context, desc discovery.LogFileDescriptor) (RecordSource, error) {
	return openLineSource(desc.Path, h.cfg.maxLineBytes, h.decode)
}

func (h *TextHandler) decode(line string) (*record.LogRecord, error) {
	ts, _, rest, ok := h.detector.Match(line)
	if !ok {
		return nil, ErrNoTimestamp
	}

	kind, message := record.KindUnknown, rest
	for _, re := range []*regexp.Regexp{textBracketed, textDashed, textColon} {
		if m := re.FindStringSubmatch(rest); m != nil {
			kind, message = strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2])
			break
		}
	}

	payload := record.Payload{}
	for _, kv := range textKeyValue.FindAllStringSubmatch(message, -1) {
		payload[kv[1]] = strings.Trim(kv[2], `"`)
	}
	payload["message"] = message
	payload["event_type"] = kind

	return &record.LogRecord{
		Timestamp: ts,
		Kind:      kind,
		Payload:   payload,
	}, nil
}
