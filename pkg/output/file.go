package output

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportFileName returns kiropulse-<timestamp>.<ext> for a report written
// at t.
func ReportFileName(f Formatter, t time.Time) string {
	return fmt.Sprintf("kiropulse-%s.%s", t.Format("20060102_150405"), f.Extension())
}

// WriteReportFile renders report into dir, creating dir if needed, and
// returns the file path. An existing file is never overwritten.
func WriteReportFile(ctx context.Context, dir string, f Formatter, report *Report, now time.Time) (string, error) {
	var buf bytes.Buffer
	if err := f.Format(ctx, report, &buf); err != nil {
		return "", fmt.Errorf("formatting report: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, ReportFileName(f, now))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 -- report directory is user-configured
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}

	if _, err := file.Write(buf.Bytes()); err != nil {
		file.Close()
		return "", fmt.Errorf("writing report file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}

	return path, nil
}
