// Package builtin provides the reference tool set: filesystem access,
// shell execution, search, HTTP fetch, a sandboxed JavaScript engine, and
// an HTML canvas writer.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// Register adds all built-in tools to the registry. The journal feeds the
// JavaScript tool's history injection; pass the runtime's journal.
func Register(registry *tools.Registry, journal *tools.Journal) error {
	set := []tools.Tool{
		&ReadTool{},
		&WriteTool{},
		&UpdateTool{},
		&BashTool{},
		&GrepTool{},
		&GlobTool{},
		&FetchTool{},
		&ListTool{},
		NewJavaScriptTool(journal),
		&WebCanvasTool{},
	}
	for _, tool := range set {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("register %s: %w", tool.Name(), err)
		}
	}
	return nil
}

// resolvePath makes path absolute against the invocation's working
// directory.
func resolvePath(ctx context.Context, path string) string {
	return resolveIn(tools.ScopeFrom(ctx).WorkingDir, path)
}

func resolveIn(workingDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	if workingDir == "" {
		workingDir, _ = os.Getwd()
	}
	return filepath.Join(workingDir, path)
}

func toolError(message string) *tools.ToolResult {
	payload, _ := json.Marshal(map[string]string{"error": message})
	return &tools.ToolResult{Content: string(payload), IsError: true}
}

func jsonResult(v any) (*tools.ToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &tools.ToolResult{Content: string(payload), Structured: v}, nil
}

func mustSchema(schema map[string]any) json.RawMessage {
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}
