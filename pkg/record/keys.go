package record

import (
	"path"
	"strings"
)

// UnassignedProject groups records that carry no project hint.
const UnassignedProject = "unassigned"

// projectFieldGroups lists project hints in precedence order. The first group
// holds plain names; the rest hold paths.
var projectFieldGroups = [][]string{
	{"project_name", "projectName"},
	{"workspace_path", "workspacePath"},
	{"working_directory", "cwd"},
	{"context.workspace", "context.path", "context.project"},
}

// modelFields lists model hints in precedence order.
var modelFields = []string{
	"agent_model",
	"agentModel",
	"model_id",
	"modelId",
	"model",
	"model_name",
	"llm_model",
	"ai_model",
	"context.model",
	"context.model_name",
	"context.modelId",
}

// fileHintExtensions mark a path hint that points at a file inside the
// workspace rather than the workspace itself.
var fileHintExtensions = map[string]bool{
	".log":   true,
	".json":  true,
	".jsonl": true,
	".txt":   true,
	".md":    true,
}

// ProjectKey derives the normalized project key for a payload. The first
// non-empty hint wins, even when later hints disagree.
func ProjectKey(p Payload) string {
	for i, group := range projectFieldGroups {
		for _, field := range group {
			v, ok := p.String(field)
			if !ok {
				continue
			}
			var key string
			if i == 0 {
				key = strings.ToLower(strings.TrimSpace(v))
			} else {
				key = NormalizePath(v)
			}
			if key != "" {
				return key
			}
		}
	}
	return UnassignedProject
}

// NormalizePath reduces a workspace path to its lowercased directory name.
// Windows separators and trailing slashes are tolerated.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}

	p = path.Clean(p)
	base := path.Base(p)
	if fileHintExtensions[strings.ToLower(path.Ext(base))] {
		base = path.Base(path.Dir(p))
	}
	if base == "." || base == "/" {
		return ""
	}
	return strings.ToLower(base)
}

// ModelKey returns the normalized model identifier a record was produced
// with, if it names one.
func ModelKey(p Payload) (string, bool) {
	for _, field := range modelFields {
		v, ok := p.String(field)
		if !ok {
			continue
		}
		if key := strings.ToLower(strings.TrimSpace(v)); key != "" {
			return key, true
		}
	}
	return "", false
}
