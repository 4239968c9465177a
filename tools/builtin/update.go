package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// UpdateTool replaces line ranges in an existing file. Ranges are 1-based
// with an exclusive end_line, so start_line == end_line inserts before
// start_line. Overlapping replacements are rejected. The target must have
// been read this session (file tracker).
type UpdateTool struct{}

func (t *UpdateTool) Name() string { return "Update" }

func (t *UpdateTool) Description() string {
	return "Replace line ranges in an existing file. Ranges are 1-based with exclusive end_line; start_line == end_line inserts."
}

func (t *UpdateTool) Schema() json.RawMessage {
	replacement := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"start_line":  map[string]any{"type": "integer", "minimum": 1},
			"end_line":    map[string]any{"type": "integer", "minimum": 1},
			"new_content": map[string]any{"type": "string"},
		},
		"required": []string{"start_line", "end_line", "new_content"},
	}
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "Path to the file to update.",
			},
			"replacements": map[string]any{
				"type":        "array",
				"description": "Line-range replacements to apply atomically.",
				"items":       replacement,
			},
			"start_line":  map[string]any{"type": "integer", "minimum": 1},
			"end_line":    map[string]any{"type": "integer", "minimum": 1},
			"new_content": map[string]any{"type": "string"},
		},
		"required": []string{"file_path"},
	})
}

func (t *UpdateTool) Capabilities() tools.CapabilitySet {
	return tools.Caps(tools.CapRead, tools.CapWrite)
}

// WriteTarget reports the mutation target; updates require the file to
// exist.
func (t *UpdateTool) WriteTarget(params json.RawMessage, workingDir string) (string, bool, error) {
	var input updateInput
	if err := json.Unmarshal(params, &input); err != nil {
		return "", false, err
	}
	return resolveIn(workingDir, input.FilePath), true, nil
}

type replacement struct {
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	NewContent string `json:"new_content"`
}

type updateInput struct {
	FilePath     string        `json:"file_path"`
	Replacements []replacement `json:"replacements"`

	// Singular form, equivalent to a one-element replacements list.
	StartLine  *int   `json:"start_line"`
	EndLine    *int   `json:"end_line"`
	NewContent string `json:"new_content"`
}

func (t *UpdateTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input updateInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.FilePath) == "" {
		return toolError("file_path is required"), nil
	}

	replacements := input.Replacements
	if len(replacements) == 0 {
		if input.StartLine == nil || input.EndLine == nil {
			return toolError("provide replacements or start_line/end_line/new_content"), nil
		}
		replacements = []replacement{{
			StartLine:  *input.StartLine,
			EndLine:    *input.EndLine,
			NewContent: input.NewContent,
		}}
	}

	path := resolvePath(ctx, input.FilePath)
	data, err := os.ReadFile(path)
	if err != nil {
		return toolError(fmt.Sprintf("read %s: %v", path, err)), nil
	}

	updated, applied, err := applyReplacements(string(data), replacements)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return toolError(fmt.Sprintf("write %s: %v", path, err)), nil
	}

	return jsonResult(map[string]any{
		"path":         path,
		"replacements": applied,
		"lines":        len(splitLines(updated)),
	})
}

// applyReplacements validates ranges against the file and applies them
// bottom-up so earlier indices stay stable.
func applyReplacements(content string, replacements []replacement) (string, int, error) {
	hadTrailingNewline := strings.HasSuffix(content, "\n")
	lines := splitLines(content)

	sorted := make([]replacement, len(replacements))
	copy(sorted, replacements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartLine < sorted[j].StartLine
	})

	for i, r := range sorted {
		if r.StartLine < 1 {
			return "", 0, fmt.Errorf("start_line %d is out of range (lines are 1-based)", r.StartLine)
		}
		if r.EndLine < r.StartLine {
			return "", 0, fmt.Errorf("end_line %d precedes start_line %d", r.EndLine, r.StartLine)
		}
		if r.StartLine > len(lines)+1 || r.EndLine > len(lines)+1 {
			return "", 0, fmt.Errorf("range %d:%d exceeds file length %d", r.StartLine, r.EndLine, len(lines))
		}
		if i > 0 && sorted[i-1].EndLine > r.StartLine {
			return "", 0, fmt.Errorf("overlapping replacements: %d:%d and %d:%d",
				sorted[i-1].StartLine, sorted[i-1].EndLine, r.StartLine, r.EndLine)
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		r := sorted[i]
		var newLines []string
		if r.NewContent != "" {
			newLines = splitLines(r.NewContent)
		}
		head := lines[:r.StartLine-1]
		tail := lines[r.EndLine-1:]
		merged := make([]string, 0, len(head)+len(newLines)+len(tail))
		merged = append(merged, head...)
		merged = append(merged, newLines...)
		merged = append(merged, tail...)
		lines = merged
	}

	updated := strings.Join(lines, "\n")
	if hadTrailingNewline && updated != "" {
		updated += "\n"
	}
	return updated, len(sorted), nil
}
