// Package config provides configuration loading and validation for kiropulse.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// LogDir is the directory searched for logs, usually the Kiro
	// application folder.
	LogDir string `yaml:"log_dir"`

	// SettingsPath is the Kiro user settings document. Defaults to
	// <app folder>/User/settings.json.
	SettingsPath string `yaml:"settings_path,omitempty"`

	// DefaultDateRangeDays is the analysis window when no dates are given.
	DefaultDateRangeDays int `yaml:"default_date_range_days"`

	// OutputDirectory receives report files.
	OutputDirectory string `yaml:"output_directory"`

	// EnabledMetrics names the calculators to run. Empty means all.
	EnabledMetrics []string `yaml:"enabled_metrics,omitempty"`

	// CustomParsers names external parser plugins
	// (kiropulse-parser-<name> on PATH). They take precedence over the
	// built-in handlers.
	CustomParsers []string `yaml:"custom_parsers,omitempty"`

	// Workers bounds concurrent file parsing. Zero means one per CPU.
	Workers int `yaml:"workers,omitempty"`

	// MaxLineBytes caps a single log line.
	MaxLineBytes int `yaml:"max_line_bytes,omitempty"`

	// Timezone is the IANA zone for timestamps that carry no offset.
	// Empty means the local zone.
	Timezone string `yaml:"timezone,omitempty"`

	location *time.Location
}

// Location returns the zone for naive timestamps (populated during
// validation).
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// DateRange returns the default analysis window ending at now.
func (c *Config) DateRange(now time.Time) (time.Time, time.Time) {
	days := c.DefaultDateRangeDays
	if days <= 0 {
		days = DefaultDateRangeDays
	}
	return now.AddDate(0, 0, -days), now
}
