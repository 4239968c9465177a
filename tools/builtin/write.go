package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// WriteTool creates or overwrites a file, creating parent directories as
// needed. Overwriting an existing file requires a prior read; the runtime
// enforces that through the file tracker.
type WriteTool struct{}

func (t *WriteTool) Name() string { return "Write" }

func (t *WriteTool) Description() string {
	return "Write content to a file, creating parent directories. Overwrites existing files."
}

func (t *WriteTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to write (absolute, or relative to the working directory).",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "File contents to write.",
			},
		},
		"required": []string{"file_path", "content"},
	})
}

func (t *WriteTool) Capabilities() tools.CapabilitySet {
	return tools.Caps(tools.CapWrite)
}

// WriteTarget reports the mutation target for the file tracker. The file
// may be new, so mustExist is false.
func (t *WriteTool) WriteTarget(params json.RawMessage, workingDir string) (string, bool, error) {
	var input writeInput
	if err := json.Unmarshal(params, &input); err != nil {
		return "", false, err
	}
	return resolveIn(workingDir, input.FilePath), false, nil
}

type writeInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content"`
}

func (t *WriteTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input writeInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return toolError("file_path is required"), nil
	}

	path := resolvePath(ctx, input.FilePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return toolError(fmt.Sprintf("create directory: %v", err)), nil
	}
	if err := os.WriteFile(path, []byte(input.Content), 0o644); err != nil {
		return toolError(fmt.Sprintf("write %s: %v", path, err)), nil
	}

	return jsonResult(map[string]any{
		"path":          path,
		"bytes_written": len(input.Content),
		"lines":         len(splitLines(input.Content)),
	})
}
