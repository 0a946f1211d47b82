package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/kiropulse/pkg/timefmt"
)

// sniffer samples file heads within the CanHandle budget.
var sniffer = timefmt.New(
	timefmt.WithSampleSize(SniffLines),
	timefmt.WithMaxBytes(SniffBytes),
)

// sniff returns up to SniffLines non-blank lines from the head of path.
// Unreadable files sniff as empty; Open reports the real error.
func sniff(path string) []string {
	f, err := os.Open(path) // #nosec G304 -- paths come from discovery
	if err != nil {
		return nil
	}
	defer f.Close()

	lines, err := sniffer.SampleReader(f)
	if err != nil {
		return nil
	}
	return lines
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
