package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/harlanhaskins/claude-agent-go/tools"
)

const (
	defaultBashTimeout = 120 * time.Second
	maxBashTimeout     = 600 * time.Second
)

// BashTool runs a shell command via /bin/bash -c with a timeout taken
// from the input in milliseconds. The exit code is always appended to
// the captured output.
type BashTool struct{}

func (t *BashTool) Name() string { return "Bash" }

func (t *BashTool) Description() string {
	return "Run a shell command with /bin/bash -c, capturing stdout, stderr, and the exit code."
}

func (t *BashTool) Schema() json.RawMessage {
	return mustSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to execute.",
			},
			"timeout": map[string]any{
				"type":        "integer",
				"description": "Timeout in milliseconds (default 120000, max 600000).",
				"minimum":     1,
			},
		},
		"required": []string{"command"},
	})
}

func (t *BashTool) Capabilities() tools.CapabilitySet { return tools.Caps(tools.CapExecute) }

func (t *BashTool) Execute(ctx context.Context, params json.RawMessage) (*tools.ToolResult, error) {
	var input struct {
		Command string `json:"command"`
		Timeout int    `json:"timeout"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Command) == "" {
		return toolError("command is required"), nil
	}

	timeout := defaultBashTimeout
	if input.Timeout > 0 {
		timeout = time.Duration(input.Timeout) * time.Millisecond
	}
	if timeout > maxBashTimeout {
		timeout = maxBashTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "/bin/bash", "-c", input.Command)
	if scope := tools.ScopeFrom(ctx); scope.WorkingDir != "" {
		cmd.Dir = scope.WorkingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return toolError(fmt.Sprintf("command timed out after %s", timeout)), nil
	}
	if ctx.Err() != nil {
		return toolError("cancelled"), nil
	}

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return toolError(fmt.Sprintf("run command: %v", runErr)), nil
		}
	}

	var out strings.Builder
	out.WriteString(stdout.String())
	if stderr.Len() > 0 {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteString("\n")
		}
		out.WriteString(stderr.String())
	}
	if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
		out.WriteString("\n")
	}
	fmt.Fprintf(&out, "exit code: %d", exitCode)

	return &tools.ToolResult{Content: out.String(), IsError: exitCode != 0}, nil
}
