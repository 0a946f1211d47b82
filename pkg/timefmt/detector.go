// Package timefmt recognizes the timestamp shapes found at the start of
// plain-text log lines and parses standalone timestamp values.
package timefmt

import (
	"bufio"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// Sampling limits used when sniffing a file.
const (
	DefaultSampleSize = 100
	DefaultMaxBytes   = 64 * 1024
)

// DetectionResult holds the result of sampling lines for timestamps.
type DetectionResult struct {
	Matches       []FormatMatch // Formats that matched, best first
	SampledLines  int           // Number of lines sampled
	ParsedLines   int           // Lines matched by the best format
	AmbiguityNote string        // Warning about date ordering if applicable
}

// FormatMatch is a format that matched some of the sampled lines.
type FormatMatch struct {
	Format     *Format
	Confidence float64   // Share of sampled lines matched, 0.0 to 1.0
	MatchCount int       // Number of lines that matched
	SampleLine string    // First line that matched
	ParsedTime time.Time // Timestamp parsed from SampleLine
}

// Detector matches log lines against the known timestamp formats.
type Detector struct {
	formats    []*Format
	sampleSize int
	maxBytes   int
	location   *time.Location
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMaxBytes caps how much of a file is read when sampling (default 64 KiB).
func WithMaxBytes(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// WithLocation sets the zone for timestamps that carry no offset
// (default time.Local).
func WithLocation(loc *time.Location) Option {
	return func(d *Detector) {
		if loc != nil {
			d.location = loc
		}
	}
}

// New creates a Detector with the default formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: DefaultSampleSize,
		maxBytes:   DefaultMaxBytes,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Location returns the zone used for naive timestamps.
func (d *Detector) Location() *time.Location {
	return d.location
}

// Match finds the first format, in table order, that parses a timestamp at
// the start of line. It returns the timestamp, the format and the remainder
// of the line after the timestamp.
func (d *Detector) Match(line string) (time.Time, *Format, string, bool) {
	line = strings.TrimSpace(line)
	for _, format := range d.formats {
		loc := format.Pattern.FindStringSubmatchIndex(line)
		if loc == nil || loc[2] < 0 {
			continue
		}
		ts, ok := ParseLayout(line[loc[2]:loc[3]], format.Layout, d.location)
		if !ok {
			continue
		}
		return ts, format, strings.TrimSpace(line[loc[1]:]), true
	}
	return time.Time{}, nil, "", false
}

// DetectFromFile samples the head of a file and reports matching formats.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines reports which formats match the given lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
	}

	if len(lines) == 0 {
		return result
	}

	type formatStats struct {
		format     *Format
		order      int
		matchCount int
		sampleLine string
		parsedTime time.Time
	}

	stats := make(map[string]*formatStats)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		for i, format := range d.formats {
			matches := format.Pattern.FindStringSubmatch(line)
			if len(matches) < 2 {
				continue
			}

			parsedTime, ok := ParseLayout(matches[1], format.Layout, d.location)
			if !ok {
				continue
			}

			if stats[format.Name] == nil {
				stats[format.Name] = &formatStats{
					format:     format,
					order:      i,
					sampleLine: line,
					parsedTime: parsedTime,
				}
			}
			stats[format.Name].matchCount++
		}
	}

	order := make(map[string]int, len(stats))
	for _, s := range stats {
		order[s.format.Name] = s.order
		result.Matches = append(result.Matches, FormatMatch{
			Format:     s.format,
			Confidence: float64(s.matchCount) / float64(len(lines)),
			MatchCount: s.matchCount,
			SampleLine: s.sampleLine,
			ParsedTime: s.parsedTime,
		})
	}

	// Ties go to the format listed first, which is the more specific one.
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return order[result.Matches[i].Format.Name] < order[result.Matches[j].Format.Name]
	})

	if len(result.Matches) > 0 {
		result.ParsedLines = result.Matches[0].MatchCount
	}

	if len(result.Matches) > 0 && result.Matches[0].Format.Ambiguous {
		result.AmbiguityNote = "This format has date ordering ambiguity (MM/DD vs DD/MM). " +
			"Verify the timestamps read as month first."
	}

	return result
}

// SampleReader reads up to the sample size of non-blank lines from r,
// never consuming more than the byte cap.
func (d *Detector) SampleReader(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(io.LimitReader(r, int64(d.maxBytes)))
	scanner.Buffer(make([]byte, 0, 4096), d.maxBytes+1)

	for len(lines) < d.sampleSize && scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			lines = append(lines, scanner.Text())
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - path comes from discovery or the CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return d.SampleReader(file)
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
