package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders analysis results in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, csv).
	Name() string

	// Extension is the file extension for saved reports, without a dot.
	Extension() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds per-file diagnostics and timing.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{"text", "json", "csv"}
}

// NewFormatter returns the formatter for name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "csv":
		return NewCSVFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be one of %v)", name, Formats())
	}
}
