package metrics

import (
	"github.com/ccollicutt/kiropulse/pkg/record"
)

var characterFields = []string{"character_count", "characters", "chars_processed", "content_length"}

// CharacterCalculator sums the first positive character count field of
// each record.
type CharacterCalculator struct{}

// CharacterTotal is the CharacterCalculator partial.
type CharacterTotal int

func (CharacterCalculator) Name() string { return "characters" }

func (CharacterCalculator) Calculate(records []*record.LogRecord) Partial {
	var total CharacterTotal
	for _, r := range records {
		for _, field := range characterFields {
			if n, ok := r.Payload.Int(field); ok {
				if n > 0 {
					total += CharacterTotal(n)
				}
				break
			}
		}
	}
	return total
}

func (t CharacterTotal) Apply(r *Result) {
	r.TotalCharactersProcessed = int(t)
}
