package metrics

import (
	"strings"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

var conversationIDFields = []string{"conversation_id", "conversationId"}

// RequestCalculator counts requests and distinct conversations.
//
// Conversations are the distinct ids among conversation_start records, with
// an id-less start counting as a conversation of its own. Without any
// conversation_start record, distinct conversation ids across all records
// are counted instead.
type RequestCalculator struct{}

// RequestStats is the RequestCalculator partial.
type RequestStats struct {
	TotalRequests      int
	TotalConversations int
}

func (RequestCalculator) Name() string { return "requests" }

func (RequestCalculator) Calculate(records []*record.LogRecord) Partial {
	var stats RequestStats

	started := make(map[string]bool)
	anonymousStarts := 0
	sawStart := false
	seen := make(map[string]bool)

	for _, r := range records {
		id, hasID := r.Payload.FirstString(conversationIDFields...)
		id = strings.TrimSpace(id)
		if hasID {
			seen[id] = true
		}

		switch r.Kind {
		case record.KindRequest:
			stats.TotalRequests++
		case record.KindConversationStart:
			sawStart = true
			if hasID {
				started[id] = true
			} else {
				anonymousStarts++
			}
		}
	}

	if sawStart {
		stats.TotalConversations = len(started) + anonymousStarts
	} else {
		stats.TotalConversations = len(seen)
	}
	return stats
}

func (s RequestStats) Apply(r *Result) {
	r.TotalRequests = s.TotalRequests
	r.TotalConversations = s.TotalConversations
}
