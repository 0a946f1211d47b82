package timefmt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDetector_DetectFromLines_ISO8601(t *testing.T) {
	lines := []string{
		"2025-01-15T10:30:00 Application started",
		"2025-01-15T10:30:05 Processing request",
		"2025-01-15T10:30:10 Request completed",
	}

	d := New()
	result := d.DetectFromLines(lines)

	if !result.HasMatch() {
		t.Fatal("Expected to detect a format")
	}

	best := result.BestMatch()
	if best.Format.Name != "ISO 8601" {
		t.Errorf("Expected ISO 8601, got %s", best.Format.Name)
	}
	if best.Confidence != 1.0 {
		t.Errorf("Expected 100%% confidence, got %.1f%%", best.Confidence*100)
	}
}

func TestDetector_DetectFromLines_KiroLines(t *testing.T) {
	lines := []string{
		"2025-01-15 10:30:00.123 [info] Triggered new agent",
		"2025-01-15 10:30:01.456 [error] request failed",
	}

	result := New().DetectFromLines(lines)
	best := result.BestMatch()
	if best == nil {
		t.Fatal("Expected to detect a format")
	}
	if best.Format.Name != "Datetime with milliseconds" {
		t.Errorf("Expected Datetime with milliseconds, got %s", best.Format.Name)
	}
	if best.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2", best.MatchCount)
	}
}

func TestDetector_DetectFromLines_Bracketed(t *testing.T) {
	lines := []string{
		"[2025-01-15 10:30:00] [request] started",
		"[2025-01-15T10:30:05Z] [response] done",
	}

	best := New().DetectFromLines(lines).BestMatch()
	if best == nil {
		t.Fatal("Expected to detect a format")
	}
	if best.Format.Name != "Bracketed ISO 8601" {
		t.Errorf("Expected Bracketed ISO 8601, got %s", best.Format.Name)
	}
}

func TestDetector_DetectFromLines_UnixTimestamp(t *testing.T) {
	lines := []string{
		"1736937000 event one",
		"1736937060 event two",
	}

	best := New().DetectFromLines(lines).BestMatch()
	if best == nil {
		t.Fatal("Expected to detect a format")
	}
	if best.Format.Layout != LayoutUnixSeconds {
		t.Errorf("Layout = %s, want %s", best.Format.Layout, LayoutUnixSeconds)
	}
}

func TestDetector_DetectFromLines_NoMatch(t *testing.T) {
	lines := []string{
		"no timestamp here",
		"still nothing",
	}

	result := New().DetectFromLines(lines)
	if result.HasMatch() {
		t.Errorf("Expected no match, got %s", result.BestMatch().Format.Name)
	}
	if result.BestMatch() != nil {
		t.Error("BestMatch() should be nil without matches")
	}
}

func TestDetector_DetectFromLines_EmptyInput(t *testing.T) {
	result := New().DetectFromLines(nil)
	if result.SampledLines != 0 || result.HasMatch() {
		t.Errorf("unexpected result for empty input: %+v", result)
	}
}

func TestDetector_DetectFromLines_AmbiguousFormat(t *testing.T) {
	result := New().DetectFromLines([]string{"01/15/2025 10:30:00 started"})
	if result.AmbiguityNote == "" {
		t.Error("Expected an ambiguity note for MM/DD/YYYY")
	}
}

func TestDetector_Match(t *testing.T) {
	d := New(WithLocation(time.UTC))

	tests := []struct {
		line     string
		want     time.Time
		wantRest string
		wantOK   bool
	}{
		{
			line:     "2025-01-15 10:30:00.250 [info] hello",
			want:     time.Date(2025, 1, 15, 10, 30, 0, 250_000_000, time.UTC),
			wantRest: "[info] hello",
			wantOK:   true,
		},
		{
			line:     "[2025-01-15 10:30:00] [request] go",
			want:     time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			wantRest: "[request] go",
			wantOK:   true,
		},
		{
			line:     "2025-01-15T10:30:00Z - response - ok",
			want:     time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			wantRest: "- response - ok",
			wantOK:   true,
		},
		{
			line:   "garbage",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, _, rest, ok := d.Match(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("Match() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("Match() time = %v, want %v", got, tt.want)
			}
			if rest != tt.wantRest {
				t.Errorf("Match() rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestDetector_WithSampleSize(t *testing.T) {
	d := New(WithSampleSize(50))
	if d.sampleSize != 50 {
		t.Errorf("sampleSize = %d, want 50", d.sampleSize)
	}

	d = New(WithSampleSize(-1))
	if d.sampleSize != DefaultSampleSize {
		t.Errorf("sampleSize = %d, want default %d", d.sampleSize, DefaultSampleSize)
	}
}

func TestDetector_DetectFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	content := "# header comment\n\n2025-01-15 10:30:00 one\n2025-01-15 10:31:00 two\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := New().DetectFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DetectFromFile() error = %v", err)
	}
	if result.SampledLines != 2 {
		t.Errorf("SampledLines = %d, want 2", result.SampledLines)
	}
	if result.ParsedLines != 2 {
		t.Errorf("ParsedLines = %d, want 2", result.ParsedLines)
	}
}

func TestDetector_DetectFromFile_NotFound(t *testing.T) {
	_, err := New().DetectFromFile(context.Background(), "/nonexistent/file.log")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDetector_SampleReader_ByteCap(t *testing.T) {
	d := New(WithMaxBytes(32), WithSampleSize(10))
	input := strings.Repeat("2025-01-15 10:30:00 line\n", 10)

	lines, err := d.SampleReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("SampleReader() error = %v", err)
	}
	// 32 bytes covers one full line plus a partial second one.
	if len(lines) != 2 {
		t.Errorf("SampleReader() returned %d lines, want 2", len(lines))
	}
}

func TestDefaultFormats(t *testing.T) {
	for _, f := range DefaultFormats() {
		if f.Pattern == nil {
			t.Errorf("format %q has no compiled pattern", f.Name)
			continue
		}
		for _, ex := range f.Examples {
			m := f.Pattern.FindStringSubmatch(ex)
			if len(m) < 2 {
				t.Errorf("format %q does not match its example %q", f.Name, ex)
				continue
			}
			if _, ok := ParseLayout(m[1], f.Layout, time.UTC); !ok {
				t.Errorf("format %q cannot parse its example %q", f.Name, ex)
			}
		}
	}
}
