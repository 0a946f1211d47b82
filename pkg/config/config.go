package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/kiropulse/pkg/metrics"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault loads path if it exists and falls back to the defaults
// otherwise. Environment overrides and validation apply either way.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	cfg, err := Load(ctx, path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return finish(DefaultConfig())
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors, expands paths and resolves
// the timezone.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.LogDir) == "" {
		return errors.New("log_dir: a log directory is required")
	}
	cfg.LogDir = expandPath(cfg.LogDir)

	if cfg.SettingsPath == "" {
		cfg.SettingsPath = settings.DefaultPath()
	}
	cfg.SettingsPath = expandPath(cfg.SettingsPath)

	if cfg.DefaultDateRangeDays < 1 {
		return fmt.Errorf("default_date_range_days: must be >= 1, got %d", cfg.DefaultDateRangeDays)
	}

	if strings.TrimSpace(cfg.OutputDirectory) == "" {
		return errors.New("output_directory: an output directory is required")
	}
	cfg.OutputDirectory = expandPath(cfg.OutputDirectory)

	if _, err := metrics.Select(cfg.EnabledMetrics); err != nil {
		return fmt.Errorf("enabled_metrics: %w", err)
	}

	for i, name := range cfg.CustomParsers {
		if err := validateParserName(name); err != nil {
			return fmt.Errorf("custom_parsers[%d] (%s): %w", i, name, err)
		}
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("workers: must be >= 0, got %d", cfg.Workers)
	}

	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}

	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
		cfg.location = loc
	}

	return nil
}

func validateParserName(name string) error {
	if name == "" {
		return errors.New("name is required")
	}
	if strings.ContainsAny(name, `/\ `) {
		return errors.New("name must not contain path separators or spaces")
	}
	return nil
}

// expandPath expands a leading ~ and environment variables in the form
// ${VAR} or $VAR.
func expandPath(p string) string {
	if p == "" {
		return p
	}

	p = os.ExpandEnv(p)

	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}

	return p
}
