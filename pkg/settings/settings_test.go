package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DottedKeys(t *testing.T) {
	path := writeSettings(t, `{
		"editor.fontSize": 14,
		"kiroAgent.modelSelection": "claude-sonnet-4",
		"kiroAgent.agentModelSelection": "claude-opus",
		"kiroAgent.agentAutonomy": "Autopilot"
	}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Settings{
		ConfiguredModel: "claude-sonnet-4",
		AgentModel:      "claude-opus",
		AutonomyMode:    "Autopilot",
	}, s)
}

func TestLoad_NestedKeys(t *testing.T) {
	path := writeSettings(t, `{"kiroAgent": {"modelSelection": "m1", "agentAutonomy": "Supervised"}}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "m1", s.ConfiguredModel)
	assert.Equal(t, "", s.AgentModel)
	assert.Equal(t, "Supervised", s.AutonomyMode)
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.True(t, s.IsZero())
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeSettings(t, `{"kiroAgent.modelSelection": `))
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.Equal(t, "settings.json", filepath.Base(path))
	assert.Equal(t, DefaultAppDir(), filepath.Dir(filepath.Dir(path)))
	assert.Equal(t, "Kiro", filepath.Base(DefaultAppDir()))
}
