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

// WebCanvasTool writes an HTML document into the working directory so
// the caller can render it.
type WebCanvasTool struct{}

func (t *WebCanvasTool) Name() string { return "WebCanvas" }

func (t *WebCanvasTool) Description() string {
	return "Write an HTML document into the working directory and return its path."
}

func (t *WebCanvasTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"html": map[string]any{
				"type":        "string",
				"description": "Complete HTML document to write.",
			},
			"aspect_ratio": map[string]any{
				"type":        "string",
				"description": "Preferred aspect ratio, recorded as a meta tag (e.g. 16:9).",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Output file name (default canvas.html).",
			},
		},
		"required": []string{"html"},
	})
}

func (t *WebCanvasTool) Capabilities() tools.CapabilitySet {
	return tools.Caps(tools.CapWrite)
}

// WriteTarget reports the output path for the file tracker.
func (t *WebCanvasTool) WriteTarget(params json.RawMessage, workingDir string) (string, bool, error) {
	var input canvasInput
	if err := json.Unmarshal(params, &input); err != nil {
		return "", false, err
	}
	return resolveIn(workingDir, input.fileName()), false, nil
}

type canvasInput struct {
	HTML        string `json:"html"`
	AspectRatio string `json:"aspect_ratio"`
	Name        string `json:"name"`
}

func (in canvasInput) fileName() string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "canvas.html"
	}
	// Keep the file inside the working directory.
	return filepath.Base(name)
}

func (t *WebCanvasTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input canvasInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.HTML) == "" {
		return toolError("html is required"), nil
	}

	html := input.HTML
	if input.AspectRatio != "" {
		meta := fmt.Sprintf(`<meta name="aspect-ratio" content="%s">`, input.AspectRatio)
		if idx := strings.Index(html, "<head>"); idx >= 0 {
			at := idx + len("<head>")
			html = html[:at] + meta + html[at:]
		} else {
			html = meta + "\n" + html
		}
	}

	path := resolvePath(ctx, input.fileName())
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return toolError(fmt.Sprintf("write canvas: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"path":         path,
		"bytes":        len(html),
		"aspect_ratio": input.AspectRatio,
	})
}
