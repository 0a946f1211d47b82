package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestRunModels_Text(t *testing.T) {
	_, configPath := setupFixture(t)

	out, err := execute(t, NewModelsCommand(), "--config", configPath)
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}
	for _, want := range []string{"Configured Model: sonnet", "Agent Model:      (not set)", "Autonomy Mode:    Autopilot"} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestRunModels_JSON(t *testing.T) {
	root, configPath := setupFixture(t)

	out, err := execute(t, NewModelsCommand(), "--config", configPath, "-o", "json")
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}

	var got struct {
		SettingsPath    string `json:"settings_path"`
		ConfiguredModel string `json:"configured_model"`
		AgentModel      string `json:"agent_model"`
		AutonomyMode    string `json:"autonomy_mode"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Invalid JSON output: %v\n%s", err, out)
	}
	if got.SettingsPath != filepath.Join(root, "User", "settings.json") {
		t.Errorf("SettingsPath = %q", got.SettingsPath)
	}
	if got.ConfiguredModel != "sonnet" || got.AutonomyMode != "Autopilot" || got.AgentModel != "" {
		t.Errorf("Unexpected settings: %+v", got)
	}
}

func TestRunModels_SettingsFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := `{"kiroAgent": {"agentModelSelection": "opus"}}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, NewModelsCommand(), "--settings", path)
	if err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if !strings.Contains(out, "Agent Model:      opus") {
		t.Errorf("Nested keys should be read:\n%s", out)
	}
}

func TestRunModels_MissingSettings(t *testing.T) {
	isolate(t)

	out, err := execute(t, NewModelsCommand(), "--settings", filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("A missing settings document is not an error: %v", err)
	}
	if !strings.Contains(out, "No model settings found.") {
		t.Errorf("Unexpected output:\n%s", out)
	}
}

func TestRunModels_BadOutput(t *testing.T) {
	_, configPath := setupFixture(t)

	_, err := execute(t, NewModelsCommand(), "--config", configPath, "-o", "csv")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("Expected unsupported format error, got %v", err)
	}
}
