package discovery

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

type namePattern struct {
	re     *regexp.Regexp
	layout string
	span   time.Duration
}

// Kiro writes session logs under directories such as logs/20250115T103000.
var namePatterns = []namePattern{
	{regexp.MustCompile(`(?:^|\D)(\d{8}T\d{6})(?:\D|$)`), "20060102T150405", 0},
	{regexp.MustCompile(`(?:^|\D)(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})(?:\D|$)`), "2006-01-02T15-04-05", 0},
	{regexp.MustCompile(`(?:^|\D)(\d{4}-\d{2}-\d{2})(?:\D|$)`), "2006-01-02", 24 * time.Hour},
	{regexp.MustCompile(`(?:^|\D)(\d{8})(?:\D|$)`), "20060102", 24 * time.Hour},
}

// nameTime finds a timestamp in the base name of path, then in its parent
// directories up to (not including) root. The nearest component wins.
func nameTime(root, path string, loc *time.Location) (time.Time, time.Duration) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	for i := len(parts) - 1; i >= 0; i-- {
		if ts, span, ok := parseNameTime(parts[i], loc); ok {
			return ts, span
		}
	}
	return time.Time{}, 0
}

func parseNameTime(name string, loc *time.Location) (time.Time, time.Duration, bool) {
	for _, p := range namePatterns {
		m := p.re.FindStringSubmatch(name)
		if len(m) < 2 {
			continue
		}
		ts, err := time.ParseInLocation(p.layout, m[1], loc)
		if err != nil {
			continue
		}
		return ts, p.span, true
	}
	return time.Time{}, 0, false
}
