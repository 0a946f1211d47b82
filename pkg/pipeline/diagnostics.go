package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/ccollicutt/kiropulse/pkg/parser"
)

// Skip reasons.
const (
	ReasonUnrecognized = "unrecognized format"
	ReasonUndecodable  = "undecodable"
	ReasonUnreadable   = "unreadable"
	ReasonSettings     = "settings document"
)

// StatusParsed marks a file that was read to the end.
const StatusParsed = "parsed"

// FileReport describes one parsed file.
type FileReport struct {
	Path        string `json:"path"`
	Handler     string `json:"handler"`
	Records     int    `json:"records"`
	ParseErrors int    `json:"parse_errors"`
	Status      string `json:"status"`
}

// SkippedFile is a file that contributed no records.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Diagnostics accounts for every discovered file.
type Diagnostics struct {
	Files             []FileReport  `json:"files"`
	Skipped           []SkippedFile `json:"skipped"`
	DiscoveryWarnings []SkippedFile `json:"discovery_warnings"`
}

// TotalParseErrors sums per-line failures over all parsed files.
func (d *Diagnostics) TotalParseErrors() int {
	total := 0
	for _, f := range d.Files {
		total += f.ParseErrors
	}
	return total
}

// TotalRecords sums records over all parsed files.
func (d *Diagnostics) TotalRecords() int {
	total := 0
	for _, f := range d.Files {
		total += f.Records
	}
	return total
}

// HasWarnings reports whether any file was skipped or had bad lines.
func (d *Diagnostics) HasWarnings() bool {
	for _, s := range d.Skipped {
		if s.Err != nil {
			return true
		}
	}
	return len(d.DiscoveryWarnings) > 0 || d.TotalParseErrors() > 0
}

// Err combines the failures of skipped files. It is nil when every skip
// was intentional.
func (d *Diagnostics) Err() error {
	var err error
	for _, group := range [][]SkippedFile{d.DiscoveryWarnings, d.Skipped} {
		for _, s := range group {
			if s.Err != nil {
				err = multierr.Append(err, fmt.Errorf("%s: %w", s.Path, s.Err))
			}
		}
	}
	return err
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, parser.ErrUnrecognizedFormat):
		return ReasonUnrecognized
	case errors.Is(err, parser.ErrUndecodable):
		return ReasonUndecodable
	default:
		return ReasonUnreadable
	}
}
