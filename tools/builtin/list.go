package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// ListTool lists directory entries, optionally recursively.
type ListTool struct{}

func (t *ListTool) Name() string { return "List" }

func (t *ListTool) Description() string {
	return "List directory contents. Directories are suffixed with /."
}

func (t *ListTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to list (default: working directory).",
			},
			"recursive": map[string]any{
				"type":        "boolean",
				"description": "Descend into subdirectories.",
			},
			"show_hidden": map[string]any{
				"type":        "boolean",
				"description": "Include dotfiles.",
			},
		},
	})
}

func (t *ListTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapRead) }

func (t *ListTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		Path       string `json:"path"`
		Recursive  bool   `json:"recursive"`
		ShowHidden bool   `json:"show_hidden"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	root := resolvePath(ctx, ".")
	if input.Path != "" {
		root = resolvePath(ctx, input.Path)
	}

	var entries []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		hidden := strings.HasPrefix(entry.Name(), ".")
		if hidden && !input.ShowHidden {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if entry.IsDir() {
			entries = append(entries, rel+"/")
			if !input.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return toolError(fmt.Sprintf("list %s: %v", root, err)), nil
	}

	sort.Strings(entries)
	if len(entries) == 0 {
		return &tools.ToolResult{Content: "(empty)"}, nil
	}
	return &tools.ToolResult{Content: strings.Join(entries, "\n")}, nil
}
