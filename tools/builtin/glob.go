package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// GlobTool matches file paths against a glob pattern with ** recursion.
type GlobTool struct{}

func (t *GlobTool) Name() string { return "Glob" }

func (t *GlobTool) Description() string {
	return "Find files matching a glob pattern. Supports ** for recursive matching."
}

func (t *GlobTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pattern": map[string]any{
				"type":        "string",
				"description": "Glob pattern, e.g. **/*.go.",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Directory to match under (default: working directory).",
			},
		},
		"required": []string{"pattern"},
	})
}

func (t *GlobTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapRead) }

func (t *GlobTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		Pattern string `json:"pattern"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if input.Pattern == "" {
		return toolError("pattern is required"), nil
	}

	root := resolvePath(ctx, ".")
	if input.Path != "" {
		root = resolvePath(ctx, input.Path)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return toolError(fmt.Sprintf("not a directory: %s", root)), nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), input.Pattern)
	if err != nil {
		return toolError(fmt.Sprintf("invalid pattern: %v", err)), nil
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		return &tools.ToolResult{Content: "no matches"}, nil
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(root, m)
	}
	return &tools.ToolResult{Content: strings.Join(paths, "\n")}, nil
}
