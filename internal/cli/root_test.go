package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCommand_Subcommands(t *testing.T) {
	rootCmd := NewRootCommand()

	want := []string{"analyze", "discover", "models", "detect", "diagnose", "validate", "version"}
	for _, name := range want {
		if !isBuiltinCommand(rootCmd, name) {
			t.Errorf("Missing subcommand: %s", name)
		}
	}
	if !rootCmd.SilenceUsage || !rootCmd.SilenceErrors {
		t.Error("Root command should leave usage and error printing to Execute")
	}
}

func TestIsBuiltinCommand(t *testing.T) {
	rootCmd := NewRootCommand()

	tests := []struct {
		name string
		want bool
	}{
		{"analyze", true},
		{"help", true},
		{"completion", true},
		{"export", false},
		{"parser-acme", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isBuiltinCommand(rootCmd, tt.name); got != tt.want {
				t.Errorf("isBuiltinCommand(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRootCommand_Version(t *testing.T) {
	rootCmd := NewRootCommand()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "kiropulse ") {
		t.Errorf("Unexpected output: %q", out.String())
	}
}

func TestRootCommand_UnknownCommand(t *testing.T) {
	rootCmd := NewRootCommand()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"export"})

	if err := rootCmd.Execute(); err == nil {
		t.Error("Expected an error for an unknown command")
	}
}
