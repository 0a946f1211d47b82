package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/ccollicutt/kiropulse/pkg/parser"
	"github.com/ccollicutt/kiropulse/pkg/settings"
)

// Default values for configuration.
const (
	DefaultDateRangeDays = 7
	DefaultMaxLineBytes  = parser.DefaultMaxLineBytes
	DefaultConfigName    = "config.yaml"
	appDirName           = ".kiropulse"
)

// Environment variable names.
const (
	EnvLogDir  = "KIROPULSE_LOG_DIR"
	EnvWorkers = "KIROPULSE_WORKERS"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogDir:               settings.DefaultAppDir(),
		DefaultDateRangeDays: DefaultDateRangeDays,
		OutputDirectory:      filepath.Join(homeDir(), appDirName, "reports"),
		EnabledMetrics:       []string{},
		CustomParsers:        []string{},
		MaxLineBytes:         DefaultMaxLineBytes,
	}
}

// DefaultPath returns ~/.kiropulse/config.yaml.
func DefaultPath() string {
	return filepath.Join(homeDir(), appDirName, DefaultConfigName)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if dir := os.Getenv(EnvLogDir); dir != "" {
		c.LogDir = dir
	}
	if w := os.Getenv(EnvWorkers); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			c.Workers = n
		}
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
