package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

// JavaScriptTool evaluates a script in an embedded JS engine with no
// host access. Prior tool executions are injected as the toolHistory
// array plus one global per sanitized tool-use id, so scripts can
// post-process earlier results.
type JavaScriptTool struct {
	journal *tools.Journal
}

// NewJavaScriptTool creates the tool. journal may be nil, in which case
// scripts see an empty history.
func NewJavaScriptTool(journal *tools.Journal) *JavaScriptTool {
	return &JavaScriptTool{journal: journal}
}

func (t *JavaScriptTool) Name() string { return "JavaScript" }

func (t *JavaScriptTool) Description() string {
	return "Evaluate JavaScript in a sandboxed engine. Prior tool results are available as toolHistory and per-id globals."
}

func (t *JavaScriptTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "JavaScript source to evaluate. The final expression is the result.",
			},
			"input": map[string]any{
				"description": "Arbitrary value exposed to the script as the input global.",
			},
		},
		"required": []string{"code"},
	})
}

func (t *JavaScriptTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapExecute) }

func (t *JavaScriptTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		Code  string          `json:"code"`
		Input json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Code) == "" {
		return toolError("code is required"), nil
	}

	vm := goja.New()

	if len(input.Input) > 0 {
		var scriptInput any
		if err := json.Unmarshal(input.Input, &scriptInput); err != nil {
			return toolError(fmt.Sprintf("invalid input value: %v", err)), nil
		}
		vm.Set("input", scriptInput)
	}

	var logs []string
	console := vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		logs = append(logs, strings.Join(parts, " "))
		return goja.Undefined()
	})
	vm.Set("console", console)

	t.injectHistory(vm)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt("cancelled")
		case <-stop:
		}
	}()

	value, err := vm.RunString(input.Code)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return toolError("cancelled"), nil
		}
		return toolError(fmt.Sprintf("script error: %v", err)), nil
	}

	var out strings.Builder
	if len(logs) > 0 {
		out.WriteString(strings.Join(logs, "\n"))
	}
	if result := renderValue(value); result != "" {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.WriteString(result)
	}
	if out.Len() == 0 {
		out.WriteString("undefined")
	}

	return &tools.ToolResult{Content: out.String(), Structured: value.Export()}, nil
}

// injectHistory exposes prior executions as toolHistory plus one global
// per tool-use id.
func (t *JavaScriptTool) injectHistory(vm *goja.Runtime) {
	if t.journal == nil {
		vm.Set("toolHistory", []any{})
		return
	}

	history := t.journal.History()
	entries := make([]any, 0, len(history))
	for _, exec := range history {
		var decodedInput any
		if len(exec.Input) > 0 {
			if err := json.Unmarshal(exec.Input, &decodedInput); err != nil {
				decodedInput = string(exec.Input)
			}
		}
		entry := map[string]any{
			"id":       exec.ToolUseID,
			"name":     exec.ToolName,
			"input":    decodedInput,
			"output":   exec.Output,
			"is_error": exec.IsError,
		}
		entries = append(entries, entry)
		if exec.ToolUseID != "" {
			vm.Set(sanitizeIdentifier(exec.ToolUseID), entry)
		}
	}
	vm.Set("toolHistory", entries)
}

// sanitizeIdentifier maps a tool-use id onto a JS identifier by replacing
// every character outside [A-Za-z0-9_$] with an underscore.
func sanitizeIdentifier(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func renderValue(value goja.Value) string {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return ""
	}
	exported := value.Export()
	switch v := exported.(type) {
	case string:
		return v
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return value.String()
		}
		return string(payload)
	}
}
