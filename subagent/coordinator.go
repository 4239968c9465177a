package subagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harlanhaskins/claude-agent-go/agent"
	"github.com/harlanhaskins/claude-agent-go/hooks"
	"github.com/harlanhaskins/claude-agent-go/pkg/models"
	"github.com/harlanhaskins/claude-agent-go/tools"
)

const (
	// DefaultConcurrency bounds parallel tasks when Options.Concurrency
	// is zero.
	DefaultConcurrency = 4

	// DefaultTaskTimeout applies to tasks without an explicit timeout.
	DefaultTaskTimeout = 5 * time.Minute

	// summaryThreshold is the output length above which SummarizeResult
	// triggers a condensing model call.
	summaryThreshold = 500

	// summaryInputMax caps how much output is fed to the summarizer.
	summaryInputMax = 10000
)

// ClientFactory builds the agent client a task runs on. The default
// factory calls the Anthropic API; tests inject scripted providers.
type ClientFactory func(task Task) (*agent.Client, error)

// Options configures a Coordinator.
type Options struct {
	// APIKey and Model configure the default client factory. APIKey is
	// required unless Factory is set.
	APIKey string
	Model  string

	// SystemPrompt is the default system prompt for delegated agents.
	SystemPrompt string

	// Concurrency bounds how many tasks run at once.
	Concurrency int

	// DefaultTimeout applies to tasks that do not set one.
	DefaultTimeout time.Duration

	// WorkingDirectory and PermissionMode pass through to each task's
	// client. Delegated agents default to accept_all since there is no
	// interactive approver behind them.
	WorkingDirectory string
	PermissionMode   tools.PermissionMode

	// Factory overrides client construction.
	Factory ClientFactory

	Hooks  *hooks.Bus
	Logger *slog.Logger
}

// Coordinator fans tasks out over a bounded worker pool and gathers
// results in submission order.
type Coordinator struct {
	opts Options

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New builds a coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTaskTimeout
	}
	if opts.PermissionMode == "" {
		opts.PermissionMode = tools.PermissionAcceptAll
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With("component", "subagent")
	if opts.Factory == nil {
		if opts.APIKey == "" {
			return nil, fmt.Errorf("api key is required without a client factory")
		}
	}
	return &Coordinator{opts: opts}, nil
}

// Run executes the batch and blocks until every task settles. Task
// failures are reported in-band; Run itself errors only on empty input.
// Results come back in submission order regardless of completion order.
func (c *Coordinator) Run(ctx context.Context, tasks []Task) (*BatchResult, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks given")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelMu.Lock()
	c.cancel = cancel
	c.cancelMu.Unlock()

	start := time.Now()
	results := make([]Result, len(tasks))

	g := &errgroup.Group{}
	g.SetLimit(c.opts.Concurrency)
	for i, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		i, task := i, task
		g.Go(func() error {
			results[i] = c.runTask(runCtx, task)
			return nil
		})
	}
	g.Wait()

	return &BatchResult{Results: results, TotalDuration: time.Since(start)}, nil
}

// Cancel aborts in-flight and queued tasks. Tasks that already settled
// keep their results; the rest fail in-band.
func (c *Coordinator) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Coordinator) runTask(ctx context.Context, task Task) Result {
	start := time.Now()
	result := Result{ID: task.ID, Description: task.Description}

	fail := func(err error) Result {
		result.Duration = time.Since(start)
		result.Error = err.Error()
		c.opts.Logger.Warn("task failed", "task_id", task.ID, "error", err)
		c.emit(ctx, EventTaskFailed, task, map[string]any{"error": result.Error})
		return result
	}

	timeout := c.opts.DefaultTimeout
	if task.Timeout != nil {
		timeout = *task.Timeout
	}
	if timeout <= 0 {
		return fail(fmt.Errorf("task %s timed out before starting", task.ID))
	}

	c.emit(ctx, EventTaskStarted, task, nil)

	client, err := c.newClient(task)
	if err != nil {
		return fail(fmt.Errorf("building client for task %s: %w", task.ID, err))
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stream, err := client.Query(taskCtx, task.Prompt)
	if err != nil {
		return fail(err)
	}

	var output strings.Builder
	for msg := range stream.Messages() {
		switch msg.Role {
		case models.RoleAssistant:
			if text := msg.Text(); text != "" {
				if output.Len() > 0 {
					output.WriteString("\n")
				}
				output.WriteString(text)
			}
			for _, use := range msg.ToolUses() {
				result.ToolCallCount++
				c.emit(ctx, EventTaskToolCall, task, map[string]any{"tool": use.Name})
			}
			c.emit(ctx, EventTaskMessage, task, nil)
		}
	}

	result.TurnCount = client.TurnCount()
	result.FullOutput = output.String()

	if err := stream.Err(); err != nil {
		return fail(err)
	}
	if taskCtx.Err() == context.DeadlineExceeded {
		return fail(fmt.Errorf("task %s timed out after %s", task.ID, timeout))
	}
	if ctx.Err() != nil {
		return fail(fmt.Errorf("task %s cancelled", task.ID))
	}

	result.Summary = c.summarize(ctx, client, task, result.FullOutput)
	result.Success = true
	result.Duration = time.Since(start)
	c.emit(ctx, EventTaskCompleted, task, map[string]any{
		"turns": result.TurnCount, "tool_calls": result.ToolCallCount,
	})
	return result
}

// summarize condenses long output with a one-shot query on the task's
// client. The task is already settled, so its history is disposable. Any
// summarizer trouble falls back to a raw prefix.
func (c *Coordinator) summarize(ctx context.Context, client *agent.Client, task Task, output string) string {
	if !task.SummarizeResult || len(output) <= summaryThreshold {
		return output
	}

	clipped := output
	if len(clipped) > summaryInputMax {
		clipped = clipped[:summaryInputMax]
	}

	client.ClearHistory()
	stream, err := client.Query(ctx, "Summarize the following agent output in a few sentences. Keep concrete findings and file paths.\n\n"+clipped)
	if err == nil {
		var summary strings.Builder
		for msg := range stream.Messages() {
			if msg.Role == models.RoleAssistant {
				summary.WriteString(msg.Text())
			}
		}
		if stream.Err() == nil && summary.Len() > 0 {
			return summary.String()
		}
		err = stream.Err()
	}
	c.opts.Logger.Warn("summarization failed, using raw prefix", "task_id", task.ID, "error", err)
	return output[:summaryThreshold]
}

func (c *Coordinator) newClient(task Task) (*agent.Client, error) {
	if c.opts.Factory != nil {
		return c.opts.Factory(task)
	}
	system := task.SystemPrompt
	if system == "" {
		system = c.opts.SystemPrompt
	}
	return agent.New(agent.Options{
		APIKey:           c.opts.APIKey,
		Model:            c.opts.Model,
		SystemPrompt:     system,
		MaxTurns:         task.MaxTurns,
		AllowedTools:     task.Tools,
		WorkingDirectory: c.opts.WorkingDirectory,
		PermissionMode:   c.opts.PermissionMode,
		Hooks:            c.opts.Hooks,
		Logger:           c.opts.Logger,
	})
}

func (c *Coordinator) emit(ctx context.Context, event hooks.EventType, task Task, extra map[string]any) {
	payload := map[string]any{"task_id": task.ID, "description": task.Description}
	for k, v := range extra {
		payload[k] = v
	}
	c.opts.Hooks.Emit(ctx, &hooks.Event{Type: event, Payload: payload})
}
