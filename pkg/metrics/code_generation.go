package metrics

import (
	"strings"

	"github.com/ccollicutt/kiropulse/pkg/record"
)

// CodeGenerationCalculator sums generated lines, overall and per language,
// and computes the generation success rate.
//
// Lines come from a positive lines_generated field; a missing language is
// "unknown". A record counts as a generation attempt when it has a boolean
// success field or a status of success, failed or error. The success rate is
// successes over attempts as a percentage, 0 without attempts.
type CodeGenerationCalculator struct{}

// CodeGenerationStats is the CodeGenerationCalculator partial.
type CodeGenerationStats struct {
	Lines           int
	LinesByLanguage map[string]int
	Attempts        int
	Successes       int
}

func (CodeGenerationCalculator) Name() string { return "code_generation" }

func (CodeGenerationCalculator) Calculate(records []*record.LogRecord) Partial {
	stats := CodeGenerationStats{LinesByLanguage: map[string]int{}}

	for _, r := range records {
		if lines, ok := r.Payload.Int("lines_generated"); ok && lines > 0 {
			lang, ok := r.Payload.String("language")
			lang = strings.TrimSpace(lang)
			if !ok || lang == "" {
				lang = "unknown"
			}
			stats.Lines += lines
			stats.LinesByLanguage[lang] += lines
		}

		if succeeded, ok := generationOutcome(r.Payload); ok {
			stats.Attempts++
			if succeeded {
				stats.Successes++
			}
		}
	}
	return stats
}

// generationOutcome reports whether the record carries a generation result
// and, if so, whether it succeeded.
func generationOutcome(p record.Payload) (succeeded, ok bool) {
	if b, ok := p.Bool("success"); ok {
		return b, true
	}
	status, ok := p.String("status")
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return true, true
	case "failed", "error":
		return false, true
	}
	return false, false
}

// SuccessRate returns the success percentage, 0 without attempts.
func (s CodeGenerationStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Attempts) * 100
}

func (s CodeGenerationStats) Apply(r *Result) {
	r.LinesOfCodeGenerated = s.Lines
	r.LinesByLanguage = s.LinesByLanguage
	r.SuccessRatePercent = s.SuccessRate()
	r.GenerationAttempts = s.Attempts
}
