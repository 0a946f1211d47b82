package metrics

import (
	"strings"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

// ToolUsageCalculator counts tool_invocation records per tool. The tool
// name comes from tool_name, else tool, else each entry of tools_used.
// Invocations without a name are not counted.
type ToolUsageCalculator struct{}

// ToolUsage is the ToolUsageCalculator partial.
type ToolUsage map[string]int

func (ToolUsageCalculator) Name() string { return "tool_usage" }

func (ToolUsageCalculator) Calculate(records []*record.LogRecord) Partial {
	usage := ToolUsage{}
	for _, r := range records {
		if r.Kind != record.KindToolInvocation {
			continue
		}
		if name, ok := r.Payload.FirstString("tool_name", "tool"); ok {
			usage[strings.TrimSpace(name)]++
			continue
		}
		if names, ok := r.Payload.Strings("tools_used"); ok {
			for _, name := range names {
				if name = strings.TrimSpace(name); name != "" {
					usage[name]++
				}
			}
		}
	}
	return usage
}

func (u ToolUsage) Apply(r *Result) {
	r.ToolUsage = u
}
