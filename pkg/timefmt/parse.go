package timefmt

import (
	"strconv"
	"strings"
	"time"
)

// Unix timestamps outside 1970-2100 are rejected.
const maxUnixSeconds = 4102444800

// millisThreshold separates Unix seconds from Unix milliseconds in numeric
// timestamp fields.
const millisThreshold = 1e10

// zonedLayouts carry an explicit offset; naiveLayouts are read in the
// caller's location.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05.999999999-0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05,999999999",
		"2006-01-02",
	}
)

// Parse reads a standalone timestamp string such as a JSON field value.
// Timestamps without an offset are interpreted in loc.
func Parse(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return FromNumber(n)
	}
	return time.Time{}, false
}

// FromNumber converts a numeric epoch value. Values above 1e10 are read as
// milliseconds, smaller ones as seconds.
func FromNumber(n float64) (time.Time, bool) {
	if n < 0 {
		return time.Time{}, false
	}
	if n > millisThreshold {
		ms := int64(n)
		if ms/1000 > maxUnixSeconds {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), true
}

// ParseLayout parses a timestamp captured by a Format.
func ParseLayout(ts, layout string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}

	switch layout {
	case LayoutUnixSeconds:
		secs, err := strconv.ParseInt(ts, 10, 64)
		if err != nil || secs < 0 || secs > maxUnixSeconds {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), true

	case LayoutUnixMillis:
		millis, err := strconv.ParseInt(ts, 10, 64)
		if err != nil || millis < 0 || millis/1000 > maxUnixSeconds {
			return time.Time{}, false
		}
		return time.UnixMilli(millis), true

	case LayoutFlexible:
		return Parse(ts, loc)

	default:
		// Collapse padding such as "Jan  5".
		ts = strings.Join(strings.Fields(ts), " ")
		t, err := time.ParseInLocation(layout, ts, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}
