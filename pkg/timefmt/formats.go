package timefmt

import "regexp"

// Special layouts that are not Go reference layouts.
const (
	LayoutUnixSeconds = "UNIX_SECONDS"
	LayoutUnixMillis  = "UNIX_MILLIS"
	// LayoutFlexible defers to Parse, which tries every known ISO shape.
	LayoutFlexible = "FLEXIBLE"
)

// Format is a known line-leading timestamp shape.
type Format struct {
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled regex (set by DefaultFormats)
	PatternStr string         // First capture group is the timestamp
	Layout     string         // Go time layout, or one of the special layouts
	Examples   []string       // Example timestamps
	Ambiguous  bool           // True if the format has MM/DD vs DD/MM ambiguity
}

// DefaultFormats returns the built-in formats in match order. Shapes that
// are prefixes of longer shapes come after them.
func DefaultFormats() []*Format {
	formats := []*Format{
		{
			Name:       "ISO 8601 with timezone",
			PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))`,
			Layout:     "2006-01-02T15:04:05Z07:00",
			Examples:   []string{"2025-01-15T10:30:00Z", "2025-01-15T10:30:00.123-05:00"},
		},
		{
			Name:       "ISO 8601 with milliseconds",
			PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+)`,
			Layout:     "2006-01-02T15:04:05",
			Examples:   []string{"2025-01-15T10:30:00.123"},
		},
		{
			Name:       "ISO 8601",
			PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`,
			Layout:     "2006-01-02T15:04:05",
			Examples:   []string{"2025-01-15T10:30:00"},
		},
		{
			Name:       "Bracketed ISO 8601",
			PatternStr: `^\[(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:\d{2})?)\]`,
			Layout:     LayoutFlexible,
			Examples:   []string{"[2025-01-15 10:30:00]", "[2025-01-15T10:30:00.123Z]"},
		},
		{
			Name:       "Datetime with milliseconds",
			PatternStr: `^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d{3})`,
			Layout:     "2006-01-02 15:04:05.000",
			Examples:   []string{"2025-01-15 10:30:00.123"},
		},
		{
			Name:       "Python logging",
			PatternStr: `^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2},\d{3})`,
			Layout:     "2006-01-02 15:04:05,000",
			Examples:   []string{"2025-01-15 10:30:00,123"},
		},
		{
			Name:       "Datetime (space-separated)",
			PatternStr: `^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})`,
			Layout:     "2006-01-02 15:04:05",
			Examples:   []string{"2025-01-15 10:30:00"},
		},
		{
			Name:       "Syslog with year",
			PatternStr: `^(\w{3}\s+\d{1,2}\s+\d{4}\s+\d{2}:\d{2}:\d{2})`,
			Layout:     "Jan 2 2006 15:04:05",
			Examples:   []string{"Jan 15 2025 10:30:00"},
		},
		{
			Name:       "Unix timestamp (milliseconds)",
			PatternStr: `^(\d{13})(?:\s|$|\])`,
			Layout:     LayoutUnixMillis,
			Examples:   []string{"1736937000000"},
		},
		{
			Name:       "Unix timestamp (seconds)",
			PatternStr: `^(\d{10})(?:\s|$|\])`,
			Layout:     LayoutUnixSeconds,
			Examples:   []string{"1736937000"},
		},
		{
			Name:       "US date format (MM/DD/YYYY)",
			PatternStr: `^(\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}:\d{2})`,
			Layout:     "01/02/2006 15:04:05",
			Examples:   []string{"01/15/2025 10:30:00"},
			Ambiguous:  true,
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
