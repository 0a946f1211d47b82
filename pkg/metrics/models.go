package metrics

import (
	"github.com/ccollicutt/kiropulse/pkg/record"
)

// ModelCalculator counts records per model. Records naming no model are
// left out.
type ModelCalculator struct{}

// ModelUsage is the ModelCalculator partial.
type ModelUsage map[string]int

func (ModelCalculator) Name() string { return "models" }

func (ModelCalculator) Calculate(records []*record.LogRecord) Partial {
	usage := ModelUsage{}
	for _, r := range records {
		if key, ok := record.ModelKey(r.Payload); ok {
			usage[key]++
		}
	}
	return usage
}

func (u ModelUsage) Apply(r *Result) {
	r.ModelUsage = u
}
