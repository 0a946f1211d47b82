package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectKey(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
	}{
		{
			name:    "workspace path pointing at a log file",
			payload: Payload{"workspace_path": "/home/u/projects/app-a/session1.log"},
			want:    "app-a",
		},
		{
			name:    "second workspace",
			payload: Payload{"workspace_path": "/home/u/projects/app-b/session2.log"},
			want:    "app-b",
		},
		{
			name:    "no hint",
			payload: Payload{"message": "hello"},
			want:    UnassignedProject,
		},
		{
			name:    "nil payload",
			payload: nil,
			want:    UnassignedProject,
		},
		{
			name:    "project name wins over workspace",
			payload: Payload{"project_name": " Billing ", "workspace_path": "/src/other"},
			want:    "billing",
		},
		{
			name:    "camel case project name",
			payload: Payload{"projectName": "Web"},
			want:    "web",
		},
		{
			name:    "trailing separators",
			payload: Payload{"workspacePath": "/src/App-C///"},
			want:    "app-c",
		},
		{
			name:    "windows path",
			payload: Payload{"workspace_path": `C:\Users\dev\Repo\`},
			want:    "repo",
		},
		{
			name:    "cwd",
			payload: Payload{"cwd": "/tmp/build/../scratch"},
			want:    "scratch",
		},
		{
			name:    "working directory before context",
			payload: Payload{"working_directory": "/a/wd", "context": map[string]any{"workspace": "/a/ctx"}},
			want:    "wd",
		},
		{
			name:    "nested context path",
			payload: Payload{"context": map[string]any{"path": "/repos/engine"}},
			want:    "engine",
		},
		{
			name:    "blank name falls through",
			payload: Payload{"project_name": "  ", "cwd": "/x/y"},
			want:    "y",
		},
		{
			name:    "root path yields nothing",
			payload: Payload{"workspace_path": "/"},
			want:    UnassignedProject,
		},
		{
			name:    "null field is absent",
			payload: Payload{"project_name": nil, "cwd": "/x/z"},
			want:    "z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProjectKey(tt.payload))
		})
	}
}

func TestModelKey(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
		wantOK  bool
	}{
		{"agent model first", Payload{"agent_model": "Claude-Sonnet-4", "model": "other"}, "claude-sonnet-4", true},
		{"model id", Payload{"modelId": " CLAUDE-3.7 "}, "claude-3.7", true},
		{"nested context", Payload{"context": map[string]any{"model_name": "GPT"}}, "gpt", true},
		{"absent", Payload{"tool": "x"}, "", false},
		{"blank ignored", Payload{"model": "", "llm_model": "m1"}, "m1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ModelKey(tt.payload)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "app", NormalizePath("/Users/me/App/notes.md"))
	assert.Equal(t, "", NormalizePath("   "))
	assert.Equal(t, "proj", NormalizePath("proj"))
}
