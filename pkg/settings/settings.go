// Package settings reads the model and autonomy configuration from the Kiro
// user settings document.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. They contain dots, so lookups use a different delimiter.
const (
	KeyModelSelection      = "kiroAgent.modelSelection"
	KeyAgentModelSelection = "kiroAgent.agentModelSelection"
	KeyAgentAutonomy       = "kiroAgent.agentAutonomy"

	keyDelimiter = "::"
)

// Settings is the model configuration in effect for the analyzed period.
type Settings struct {
	ConfiguredModel string `json:"configured_model"`
	AgentModel      string `json:"agent_model"`
	AutonomyMode    string `json:"autonomy_mode"`
}

// IsZero reports whether no setting was found.
func (s Settings) IsZero() bool {
	return s == Settings{}
}

// DefaultAppDir returns the Kiro application folder for this platform,
// e.g. ~/Library/Application Support/Kiro on macOS.
func DefaultAppDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "Kiro"
	}
	return filepath.Join(dir, "Kiro")
}

// DefaultPath returns the default location of the user settings document.
func DefaultPath() string {
	return filepath.Join(DefaultAppDir(), "User", "settings.json")
}

// Load reads the settings document at path. A missing document yields
// zero Settings and no error.
func Load(path string) (Settings, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
	}

	return Settings{
		ConfiguredModel: lookup(v, KeyModelSelection),
		AgentModel:      lookup(v, KeyAgentModelSelection),
		AutonomyMode:    lookup(v, KeyAgentAutonomy),
	}, nil
}

// lookup reads a dotted key literally, then as a nested object path.
func lookup(v *viper.Viper, key string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return strings.TrimSpace(v.GetString(strings.ReplaceAll(key, ".", keyDelimiter)))
}
