package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ccollicutt/kiropulse/pkg/discovery"
	"github.com/ccollicutt/kiropulse/pkg/record"
	"github.com/ccollicutt/kiropulse/pkg/timefmt"
)

const kiroTimestampLayout = "2006-01-02 15:04:05.000"

// Minimum newline count for message content to be counted as code.
const codeLineThreshold = 5

var (
	kiroLine       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3})\s+\[(\w+)\]\s+(.+)$`)
	kiroDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]`)
	autonomyMode   = regexp.MustCompile(`autonomyMode=(\w+)`)
)

// kiroPathMarkers identify files written by the Kiro agent extension.
var kiroPathMarkers = []string{"kiro.kiroAgent", "Kiro Logs", "q-client"}

// KiroHandler parses the Kiro agent's extension logs:
//
//	2025-01-15 10:30:00.123 [info] message with optional {"embedded": "json"}
type KiroHandler struct {
	cfg config
}

// NewKiroHandler creates a Kiro log handler.
func NewKiroHandler(opts ...Option) *KiroHandler {
	return &KiroHandler{cfg: newConfig(opts)}
}

// Name implements Handler.
func (h *KiroHandler) Name() string { return "kiro" }

// CanHandle claims files under the Kiro log folders, and .log files whose
// first lines mention Kiro or CodeWhisperer in Kiro's line format.
func (h *KiroHandler) CanHandle(desc discovery.LogFileDescriptor) bool {
	for _, marker := range kiroPathMarkers {
		if strings.Contains(desc.Path, marker) {
			return true
		}
	}
	if !hasExt(desc.Path, ".log") {
		return false
	}

	mentions, shaped := false, false
	for _, line := range sniff(desc.Path) {
		if strings.Contains(strings.ToLower(line), "kiro") || strings.Contains(line, "CodeWhisperer") {
			mentions = true
		}
		if kiroLine.MatchString(line) {
			shaped = true
		}
	}
	return mentions && shaped
}

// Open implements Handler.
func (h *KiroHandler) Open(_ context.Context, desc discovery.LogFileDescriptor) (RecordSource, error) {
	return openLineSource(desc.Path, h.cfg.maxLineBytes, h.decode)
}

// decode parses one Kiro line. Lines without a leading date continue the
// previous entry's message and are not units of their own.
func (h *KiroHandler) decode(line string) (*record.LogRecord, error) {
	m := kiroLine.FindStringSubmatch(line)
	if m == nil {
		if kiroDatePrefix.MatchString(line) {
			return nil, fmt.Errorf("%w: not a Kiro log line", ErrMalformed)
		}
		return nil, nil
	}

	ts, ok := timefmt.ParseLayout(m[1], kiroTimestampLayout, h.cfg.location)
	if !ok {
		return nil, ErrNoTimestamp
	}

	level, message := strings.ToLower(m[2]), m[3]
	payload := extractKiroPayload(level, message)

	return &record.LogRecord{
		Timestamp: ts,
		Kind:      kiroEventKind(message, payload),
		Payload:   payload,
	}, nil
}

func extractKiroPayload(level, message string) record.Payload {
	p := record.Payload{
		"level":   level,
		"message": message,
	}

	if start, end := strings.Index(message, "{"), strings.LastIndex(message, "}"); start >= 0 && end > start {
		var embedded map[string]any
		if err := json.Unmarshal([]byte(message[start:end+1]), &embedded); err == nil && embedded != nil {
			p["json_payload"] = embedded
			extractConversation(record.Payload(embedded), p)
			extractTools(record.Payload(embedded), p)
			extractContent(record.Payload(embedded), p)
		}
	}

	if strings.Contains(message, "[agent-controller]") {
		p["agent_event"] = true
		if strings.Contains(message, "Triggered new agent") {
			p["event_subtype"] = "agent_start"
			if mm := autonomyMode.FindStringSubmatch(message); mm != nil {
				p["autonomy_mode"] = mm[1]
			}
		}
	}
	if strings.Contains(message, "[Tool agent Action]") || strings.Contains(message, "toolUse") {
		p["tool_invocation"] = true
	}
	if strings.Contains(message, "[Terminal]") && strings.Contains(message, "Executing command") {
		p["terminal_command"] = true
	}

	return p
}

func extractConversation(j, p record.Payload) {
	if id, ok := j.String("conversationId"); ok {
		p["conversation_id"] = id
	}
	state, ok := j.Map("conversationState")
	if !ok {
		return
	}
	sp := record.Payload(state)
	if id, ok := sp.String("conversationId"); ok {
		p["conversation_id"] = id
	}
	if task, ok := sp.String("agentTaskType"); ok {
		p["task_type"] = task
	}
	if history, ok := sp["history"].([]any); ok {
		p["message_count"] = len(history)
	}
}

func extractTools(j, p record.Payload) {
	if uses, ok := j["toolUses"].([]any); ok {
		names := make([]string, 0, len(uses))
		for _, u := range uses {
			if tool, ok := u.(map[string]any); ok {
				name, ok := record.Payload(tool).String("name")
				if !ok || name == "" {
					name = "unknown"
				}
				names = append(names, name)
			}
		}
		p["tools_used"] = names
		p["tool_count"] = len(uses)
	}

	if results, ok := j["toolResults"].([]any); ok {
		successes := 0
		for _, r := range results {
			if res, ok := r.(map[string]any); ok && res["status"] == "success" {
				successes++
			}
		}
		p["tool_results_count"] = len(results)
		p["tool_success_count"] = successes
		p["tool_failure_count"] = len(results) - successes
	}

	if tools, ok := j["tools"].([]any); ok {
		p["available_tools_count"] = len(tools)
	}
}

func extractContent(j, p record.Payload) {
	if content, ok := j["content"].(string); ok {
		if n := strings.Count(content, "\n"); n > codeLineThreshold {
			p["potential_code_lines"] = n
		}
		p["content_length"] = len(content)
	}
	if model, ok := j.String("modelId"); ok {
		p["model_id"] = model
	}
	if meta, ok := j.Map("metadata"); ok {
		mp := record.Payload(meta)
		if status, ok := mp.Int("httpStatusCode"); ok {
			p["http_status"] = status
		}
		if id, ok := mp.String("requestId"); ok {
			p["request_id"] = id
		}
	}
}

// kiroEventKind maps a Kiro message to an event kind. The finer-grained
// name is kept in the payload as event_subtype.
func kiroEventKind(message string, p record.Payload) string {
	if p.Has("agent_event") {
		if p["event_subtype"] == "agent_start" {
			return record.KindConversationStart
		}
		return "agent_event"
	}
	if p.Has("tool_invocation") {
		return record.KindToolInvocation
	}
	if p.Has("terminal_command") {
		return "terminal_command"
	}

	// Messages carrying toolUses were claimed as tool invocations above.
	if p.Has("conversation_id") {
		if strings.Contains(message, "userInputMessage") {
			p["event_subtype"] = "user_request"
			return record.KindRequest
		}
		return "conversation_message"
	}

	if strings.Contains(message, "GenerateAssistantResponseCommand") {
		p["event_subtype"] = "llm_request"
		return record.KindRequest
	}

	switch p["level"] {
	case "error":
		return "error"
	case "warning", "warn":
		return "warning"
	}
	return "info"
}
