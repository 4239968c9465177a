package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/harlanhaskins/claude-agent-go/hooks"
)

// PermissionMode controls whether tool calls need caller approval.
type PermissionMode string

const (
	// PermissionAsk routes every call through the Permissioner.
	PermissionAsk PermissionMode = "ask"

	// PermissionAcceptEdits auto-approves tools whose capabilities are
	// contained in {read, write}; everything else asks.
	PermissionAcceptEdits PermissionMode = "accept_edits"

	// PermissionAcceptAll auto-approves every call.
	PermissionAcceptAll PermissionMode = "accept_all"
)

// ApprovalRequest describes a pending tool call to the caller.
type ApprovalRequest struct {
	ToolName     string
	ToolUseID    string
	Input        json.RawMessage
	Capabilities CapabilitySet
}

// Permissioner bridges interactive approval to the embedding application.
type Permissioner interface {
	Approve(ctx context.Context, req ApprovalRequest) (bool, error)
}

const (
	// DefaultToolTimeout bounds a single tool invocation.
	DefaultToolTimeout = 120 * time.Second

	// MaxToolTimeout is the hard cap regardless of configuration.
	MaxToolTimeout = 600 * time.Second
)

// RuntimeConfig configures a Runtime.
type RuntimeConfig struct {
	Registry     *Registry
	Tracker      *FileTracker
	Limiter      *OutputLimiter
	AllowedTools []string
	Mode         PermissionMode
	Permissioner Permissioner
	Hooks        *hooks.Bus
	Logger       *slog.Logger
	WorkingDir   string
	Timeout      time.Duration
}

// Runtime validates, permission-checks, dispatches, and truncates tool
// calls. Failures are captured into the returned ToolResult; Execute
// never panics and never returns a Go error to the loop.
type Runtime struct {
	registry     *Registry
	tracker      *FileTracker
	limiter      *OutputLimiter
	allowed      map[string]struct{}
	mode         PermissionMode
	permissioner Permissioner
	hooks        *hooks.Bus
	logger       *slog.Logger
	workingDir   string
	timeout      time.Duration
	journal      *Journal

	schemaMu sync.Mutex
	schemas  map[string]*jsonschema.Schema
}

// NewRuntime creates a runtime, filling defaults for absent config.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Tracker == nil {
		cfg.Tracker = NewFileTracker(true)
	}
	if cfg.Limiter == nil {
		cfg.Limiter = DefaultOutputLimiter()
	}
	if cfg.Mode == "" {
		cfg.Mode = PermissionAsk
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultToolTimeout
	}
	if cfg.Timeout > MaxToolTimeout {
		cfg.Timeout = MaxToolTimeout
	}

	var allowed map[string]struct{}
	if cfg.AllowedTools != nil {
		allowed = make(map[string]struct{}, len(cfg.AllowedTools))
		for _, name := range cfg.AllowedTools {
			allowed[name] = struct{}{}
		}
	}

	return &Runtime{
		registry:     cfg.Registry,
		tracker:      cfg.Tracker,
		limiter:      cfg.Limiter,
		allowed:      allowed,
		mode:         cfg.Mode,
		permissioner: cfg.Permissioner,
		hooks:        cfg.Hooks,
		logger:       cfg.Logger.With("component", "tool_runtime"),
		workingDir:   cfg.WorkingDir,
		timeout:      cfg.Timeout,
		journal:      NewJournal(0),
		schemas:      make(map[string]*jsonschema.Schema),
	}
}

// Registry returns the underlying tool registry.
func (r *Runtime) Registry() *Registry { return r.registry }

// Tracker returns the file tracker.
func (r *Runtime) Tracker() *FileTracker { return r.tracker }

// Journal returns the execution journal.
func (r *Runtime) Journal() *Journal { return r.journal }

// WorkingDir returns the configured working directory.
func (r *Runtime) WorkingDir() string { return r.workingDir }

func errResult(format string, args ...any) *ToolResult {
	return &ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}
}

// failure renders a structured tool error into the in-band result the
// model sees. The kind tag stays in the content so failures are
// distinguishable downstream.
func failure(err *ToolError) *ToolResult {
	return &ToolResult{Content: err.Error(), IsError: true}
}

// Execute dispatches one tool call and returns its result. All failure
// modes (unknown tool, invalid input, denial, tracker violation, handler
// error, panic, timeout, cancellation) come back in-band with IsError.
func (r *Runtime) Execute(ctx context.Context, toolUseID, name string, input json.RawMessage) *ToolResult {
	start := time.Now()
	result := r.execute(ctx, toolUseID, name, input)

	if trimmed, truncated := r.limiter.Truncate(result.Content); truncated {
		result = &ToolResult{Content: trimmed, IsError: result.IsError, Structured: result.Structured}
	}

	r.journal.Append(Execution{
		ToolUseID: toolUseID,
		ToolName:  name,
		Input:     input,
		Output:    result.Content,
		IsError:   result.IsError,
		Duration:  time.Since(start),
	})
	r.hooks.Emit(ctx, &hooks.Event{Type: hooks.EventToolAfter, Payload: map[string]any{
		"tool_name":   name,
		"tool_use_id": toolUseID,
		"is_error":    result.IsError,
		"duration":    time.Since(start),
	}})

	return result
}

func (r *Runtime) execute(ctx context.Context, toolUseID, name string, input json.RawMessage) *ToolResult {
	if err := ctx.Err(); err != nil {
		return errResult("cancelled")
	}

	if r.allowed != nil {
		if _, ok := r.allowed[name]; !ok {
			return failure(&ToolError{Kind: ToolErrorPermission, ToolName: name, ToolUseID: toolUseID, Cause: ErrNotPermitted})
		}
	}

	tool, ok := r.registry.Get(name)
	if !ok {
		return failure(&ToolError{Kind: ToolErrorNotFound, ToolName: name, ToolUseID: toolUseID, Cause: ErrToolNotFound})
	}

	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	if err := r.validateInput(tool, input); err != nil {
		return failure(&ToolError{Kind: ToolErrorInvalidInput, ToolName: name, ToolUseID: toolUseID, Message: fmt.Sprintf("invalid input: %v", err), Cause: err})
	}

	r.hooks.Emit(ctx, &hooks.Event{Type: hooks.EventToolBefore, Payload: map[string]any{
		"tool_name":   name,
		"tool_use_id": toolUseID,
		"input":       input,
	}})

	if denied := r.checkPermission(ctx, tool, toolUseID, input); denied != nil {
		return denied
	}

	if writer, ok := tool.(FileWriter); ok && tool.Capabilities().Has(CapWrite) {
		target, mustExist, err := writer.WriteTarget(input, r.workingDir)
		if err != nil {
			return failure(&ToolError{Kind: ToolErrorInvalidInput, ToolName: name, ToolUseID: toolUseID, Message: fmt.Sprintf("invalid input: %v", err), Cause: err})
		}
		if target != "" {
			if err := r.tracker.RecordWrite(target, !mustExist); err != nil {
				return errResult("%v", err)
			}
		}
	}

	result := r.invoke(ctx, tool, toolUseID, input)

	if reader, ok := tool.(FileReader); ok && !result.IsError {
		if target, err := reader.ReadTarget(input, r.workingDir); err == nil && target != "" {
			if err := r.tracker.RecordRead(target); err != nil {
				r.logger.Debug("record read failed", "tool", name, "path", target, "error", err)
			}
		}
	}

	return result
}

func (r *Runtime) validateInput(tool Tool, input json.RawMessage) error {
	schema, err := r.compiledSchema(tool)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return schema.Validate(decoded)
}

func (r *Runtime) compiledSchema(tool Tool) (*jsonschema.Schema, error) {
	name := tool.Name()

	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()

	if schema, ok := r.schemas[name]; ok {
		return schema, nil
	}
	schema, err := jsonschema.CompileString(name+".schema.json", string(tool.Schema()))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	r.schemas[name] = schema
	return schema, nil
}

func (r *Runtime) checkPermission(ctx context.Context, tool Tool, toolUseID string, input json.RawMessage) *ToolResult {
	switch r.mode {
	case PermissionAcceptAll:
		return nil
	case PermissionAcceptEdits:
		if tool.Capabilities().EditOnly() {
			return nil
		}
	}

	denied := func(msg string, cause error) *ToolResult {
		return failure(&ToolError{Kind: ToolErrorPermission, ToolName: tool.Name(), ToolUseID: toolUseID, Message: msg, Cause: cause})
	}

	if r.permissioner == nil {
		return denied("permission denied: no approval channel configured", ErrNotPermitted)
	}
	approved, err := r.permissioner.Approve(ctx, ApprovalRequest{
		ToolName:     tool.Name(),
		ToolUseID:    toolUseID,
		Input:        input,
		Capabilities: tool.Capabilities(),
	})
	if err != nil {
		return denied(fmt.Sprintf("permission check failed: %v", err), err)
	}
	if !approved {
		return denied("permission denied", ErrNotPermitted)
	}
	return nil
}

type invokeOutcome struct {
	result *ToolResult
	err    error
}

// invoke runs the handler under the runtime timeout with panic capture.
// The result channel is buffered so an abandoned handler can still
// deliver without leaking its goroutine.
func (r *Runtime) invoke(ctx context.Context, tool Tool, toolUseID string, input json.RawMessage) *ToolResult {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	execCtx = WithScope(execCtx, Scope{WorkingDir: r.workingDir, ToolUseID: toolUseID})

	outcomes := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				outcomes <- invokeOutcome{err: fmt.Errorf("tool panicked: %v", p)}
			}
		}()
		result, err := tool.Execute(execCtx, input)
		outcomes <- invokeOutcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return errResult("cancelled")
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return errResult("cancelled")
		}
		return failure(&ToolError{Kind: ToolErrorTimeout, ToolName: tool.Name(), ToolUseID: toolUseID, Message: fmt.Sprintf("timed out after %s", r.timeout), Cause: ErrToolTimeout})
	case outcome := <-outcomes:
		if outcome.err != nil {
			r.logger.Warn("tool execution failed", "tool", tool.Name(), "error", outcome.err)
			return failure(&ToolError{Kind: ToolErrorExecution, ToolName: tool.Name(), ToolUseID: toolUseID, Cause: outcome.err})
		}
		if outcome.result == nil {
			return failure(&ToolError{Kind: ToolErrorExecution, ToolName: tool.Name(), ToolUseID: toolUseID, Message: "returned no result"})
		}
		return outcome.result
	}
}
