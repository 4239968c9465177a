package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// ReadTool reads a file, optionally windowed by 1-based line offset and
// limit. Line numbering matches the Update tool.
type ReadTool struct{}

func (t *ReadTool) Name() string { return "Read" }

func (t *ReadTool) Description() string {
	return "Read a file from the filesystem, optionally starting at a 1-based line offset with a line limit."
}

func (t *ReadTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to the file (absolute, or relative to the working directory).",
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "1-based line number to start reading from.",
				"minimum":     1,
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of lines to return.",
				"minimum":     1,
			},
		},
		"required": []string{"file_path"},
	})
}

func (t *ReadTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapRead) }

// ReadTarget reports the file this call reads so the runtime can record
// it in the file tracker.
func (t *ReadTool) ReadTarget(params json.RawMessage, workingDir string) (string, error) {
	var input readInput
	if err := json.Unmarshal(params, &input); err != nil {
		return "", err
	}
	return resolveIn(workingDir, input.FilePath), nil
}

type readInput struct {
	FilePath string `json:"file_path"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

func (t *ReadTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input readInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return toolError("file_path is required"), nil
	}

	path := resolvePath(ctx, input.FilePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return toolError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	content := string(data)
	if input.Offset > 0 || input.Limit > 0 {
		lines := splitLines(content)
		start := input.Offset
		if start < 1 {
			start = 1
		}
		if start > len(lines) {
			return &tools.ToolResult{Content: ""}, nil
		}
		end := len(lines)
		if input.Limit > 0 && start-1+input.Limit < end {
			end = start - 1 + input.Limit
		}
		content = strings.Join(lines[start-1:end], "\n")
	}

	return &tools.ToolResult{Content: content}, nil
}

// splitLines splits content into lines without producing a phantom empty
// line for a trailing newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
